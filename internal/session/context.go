package session

import (
	"sync"

	"github.com/cannonfire/planner/pkg/core"
)

// Context holds the run in progress and the last generation reported for it
type Context struct {
	mu         sync.RWMutex
	run        *core.Run
	generation int
}

// NewContext creates a Context with no run loaded
func NewContext() *Context {
	return &Context{generation: -1}
}

// Run returns the current run, nil when none is loaded
func (c *Context) Run() *core.Run {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.run
}

// Generation returns the last reported generation, -1 before the first one
func (c *Context) Generation() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// SetRun installs a new run and resets the generation
func (c *Context) SetRun(run *core.Run) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.run = run
	c.generation = -1
}

// SetGeneration records the latest generation
func (c *Context) SetGeneration(g int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation = g
}

// Position returns the current run and generation as one consistent read
func (c *Context) Position() (*core.Run, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.run, c.generation
}
