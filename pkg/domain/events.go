package domain

// Callbacks holds the machine-level notification points.
//
// Order for one transition:
// TriggerTransition -> ExitState -> EnterTransition -> ExitTransition -> EnterState.
// Each machine-level callback runs before the matching hook on the state or
// transition itself.
type Callbacks struct {
	TriggerTransition Handlers[*Transition]
	ExitState         Handlers[*State]
	EnterTransition   Handlers[*Transition]
	ExitTransition    Handlers[*Transition]
	EnterState        Handlers[*State]
}

// LifecycleHooks is a convenience bundle of single callbacks.
// Nil fields are skipped when the bundle is registered.
type LifecycleHooks struct {
	OnTriggerTransition func(*Transition)
	OnExitState         func(*State)
	OnEnterTransition   func(*Transition)
	OnExitTransition    func(*Transition)
	OnEnterState        func(*State)
}

// Register subscribes every non-nil hook to c.
func (h LifecycleHooks) Register(c *Callbacks) {
	c.TriggerTransition.Subscribe(h.OnTriggerTransition)
	c.ExitState.Subscribe(h.OnExitState)
	c.EnterTransition.Subscribe(h.OnEnterTransition)
	c.ExitTransition.Subscribe(h.OnExitTransition)
	c.EnterState.Subscribe(h.OnEnterState)
}
