package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels lists the structs migrated into the run-history schema
var DatabaseModels = []any{
	&Run{},
	&Generation{},
}

// Run is one search run: its configuration, and once finished, its result
type Run struct {
	gorm.Model
	Name           string         `json:"runId" gorm:"size:64;uniqueIndex"`
	Seed           int64          `json:"seed"`
	StartTime      time.Time      `json:"startTime"`
	EndTime        sql.NullTime   `json:"-"`
	PopulationSize int            `json:"populationSize"`
	MutationRate   float64        `json:"mutationRate"`
	Crossover      string         `json:"crossover" gorm:"size:32"`
	Elitism        bool           `json:"elitism"`
	MaxGenerations int            `json:"maxGenerations"`
	Tolerance      float64        `json:"tolerance"`
	Gravity        float64        `json:"gravity"`
	WallDistance   float64        `json:"wallDistance"`
	WallHeight     float64        `json:"wallHeight"`
	Bounds         datatypes.JSON `json:"bounds"` // SearchBounds, degrees

	// filled by the final result
	Reason       string  `json:"reason,omitempty" gorm:"size:32"`
	Generations  int     `json:"generations"`
	FoundAt      int     `json:"foundAt"`
	BestVelocity float64 `json:"bestVelocity"`
	BestAngleDeg float64 `json:"bestAngleDeg"`
	BestDistance float64 `json:"bestDistance"`
	BestFitness  float64 `json:"bestFitness"`
	Outcome      string  `json:"outcome,omitempty" gorm:"size:16"`
}

func (*Run) TableName() string {
	return "runs"
}

// SearchBounds is the JSON shape of Run.Bounds
type SearchBounds struct {
	VelocityMin float64 `json:"velocityMin"`
	VelocityMax float64 `json:"velocityMax"`
	AngleMinDeg float64 `json:"angleMinDeg"`
	AngleMaxDeg float64 `json:"angleMaxDeg"`
}

// Generation is the per-generation report of a run
type Generation struct {
	ID           uint      `json:"-" gorm:"primarykey;autoIncrement;"`
	RunID        uint      `json:"-" gorm:"index:idx_generation_run_id"`
	Time         time.Time `json:"time"`
	Number       int       `json:"generation" gorm:"index:idx_generation_number"`
	BestVelocity float64   `json:"bestVelocity"`
	BestAngleDeg float64   `json:"bestAngleDeg"`
	BestFitness  float64   `json:"bestFitness"`
	BestDistance float64   `json:"bestDistance"`
	BestRange    float64   `json:"bestRange"`
	Outcome      string    `json:"outcome" gorm:"size:16"`
	MeanFitness  float64   `json:"meanFitness"`
	WorstFitness float64   `json:"worstFitness"`
	PathWKT      string    `json:"path,omitempty" gorm:"type:text"` // sampled best trajectory as WKT LINESTRING
}

func (*Generation) TableName() string {
	return "generations"
}
