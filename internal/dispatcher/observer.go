package dispatcher

import (
	"github.com/cannonfire/planner/pkg/core"
)

// Observer forwards engine output to a dispatcher as events. Commands
// without a registered handler are skipped.
type Observer struct {
	d      *Dispatcher
	logger Logger
}

// NewObserver creates an Observer dispatching to d.
func NewObserver(d *Dispatcher) *Observer {
	return &Observer{d: d, logger: d.logger}
}

// OnStart dispatches CmdRunStart before the engine runs. The engine itself
// has no start hook.
func (o *Observer) OnStart(run *core.Run) {
	o.send(Event{Command: CmdRunStart, Payload: run, Timestamp: run.StartTime})
}

// OnGeneration dispatches CmdGeneration with the snapshot.
func (o *Observer) OnGeneration(s core.Snapshot) {
	o.send(Event{Command: CmdGeneration, Payload: s, Timestamp: s.Timestamp})
}

// OnFinish dispatches CmdRunEnd with the result.
func (o *Observer) OnFinish(r core.Result) {
	o.send(Event{Command: CmdRunEnd, Payload: r, Timestamp: r.EndTime})
}

func (o *Observer) send(e Event) {
	if !o.d.HasHandler(e.Command) {
		return
	}
	if _, err := o.d.Dispatch(e); err != nil {
		o.logger.Error("dispatch failed", "command", e.Command, "error", err)
	}
}
