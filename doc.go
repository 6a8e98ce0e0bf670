/*
Package vsm is a tick-driven visual state machine runtime.

A graph of states and transitions is executed one tick at a time. Transitions
can be instant or timed; timed transitions advance with the host's scaled or
unscaled clock. Gameplay code triggers transitions by ID, label or target
state, and observes the machine through ordered callbacks.

# Concept

The host owns the loop. Each frame it advances a clock and calls Update on
its machines. Scripts call the trigger methods whenever they like; the
machine validates the request against its graph and current state.

For one transition, notifications fire in this order:

	TriggerTransition -> ExitState -> EnterTransition -> ExitTransition -> EnterState

Instant transitions deliver all five inside the trigger call. Timed
transitions deliver the first three immediately and the last two on the tick
their timer runs out.

A trigger issued from inside a callback is allowed unless it leaves the same
origin as the outermost trigger on the call stack. That guard stops cycles of
states that trigger their successor on enter.

# Usage

	package main

	import (
		"time"

		"github.com/aretw0/vsm"
		"github.com/aretw0/vsm/pkg/clock"
		"github.com/aretw0/vsm/pkg/dsl"
	)

	func main() {
		b := dsl.New("Idle")
		b.State("Idle").On("go", "Moving")
		b.State("Moving").On("stop", "Idle").Duration(500 * time.Millisecond)

		frame := clock.NewFrame()
		m, err := vsm.New(b.MustBuild(), vsm.WithClock(frame), vsm.WithStrictGraph())
		if err != nil {
			panic(err)
		}
		m.Restart()
		m.TriggerByLabel("go")

		for range time.Tick(16 * time.Millisecond) {
			frame.Advance(16 * time.Millisecond)
			m.Update()
		}
	}

Hosts that run many machines, expose them over HTTP or checkpoint them should
use the pkg/host package.
*/
package vsm
