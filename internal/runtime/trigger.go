package runtime

import (
	"github.com/aretw0/vsm/pkg/domain"
)

// TryTrigger fires the transition with the given ID if its origin is the
// current state or the any-state node.
func (m *StateMachine) TryTrigger(id string) bool {
	if !m.CanTriggerTransitions() {
		return false
	}

	t, ok := m.graph.TryGetTransition(id)
	if !ok {
		m.logger.Debug("no transition with this id", "transition", id)
		return false
	}
	if !m.leavesCurrent(t) {
		m.logger.Debug("transition does not leave the current state",
			"transition", id, "origin", t.OriginID, "current", m.current)
		return false
	}

	return m.execute(t)
}

// Trigger is TryTrigger with a warning on failure. Rejections while the
// machine cannot trigger (paused, locked) are silent.
func (m *StateMachine) Trigger(id string) {
	if !m.CanTriggerTransitions() {
		return
	}
	if m.TryTrigger(id) {
		return
	}

	t, ok := m.graph.TryGetTransition(id)
	switch {
	case !ok:
		m.logger.Warn("failed to trigger transition, no transition with this id exists", "transition", id)
	case !m.leavesCurrent(t):
		m.logger.Warn("failed to trigger transition, the current state is not its origin",
			"transition", id, "origin", t.OriginID, "current", m.current)
	}
}

// TryTriggerByLabel fires the first transition with the given label that
// leaves the current state. If there is none, the first labelled transition
// leaving the any-state node fires instead.
func (m *StateMachine) TryTriggerByLabel(label string) bool {
	if !m.CanTriggerTransitions() {
		return false
	}

	t := m.resolve(func(t *domain.Transition) bool { return t.Label == label })
	if t == nil {
		m.logger.Debug("no transition with this label leaves the current state",
			"label", label, "current", m.current)
		return false
	}
	return m.execute(t)
}

// TriggerByLabel is TryTriggerByLabel with a warning when nothing matches.
// A match blocked by the loop guard is reported once, by the guard.
func (m *StateMachine) TriggerByLabel(label string) {
	if !m.CanTriggerTransitions() {
		return
	}
	t := m.resolve(func(t *domain.Transition) bool { return t.Label == label })
	if t == nil {
		m.logger.Warn("no transition with this label can be triggered in the current context",
			"label", label, "current", m.current)
		return
	}
	m.execute(t)
}

// TryTriggerByState fires the first transition into the given state, with
// the same current-state-first policy as TryTriggerByLabel.
func (m *StateMachine) TryTriggerByState(id string) bool {
	if !m.CanTriggerTransitions() {
		return false
	}

	t := m.resolve(func(t *domain.Transition) bool { return t.TargetID == id })
	if t == nil {
		m.logger.Debug("no transition to this state leaves the current state",
			"target", id, "current", m.current)
		return false
	}
	return m.execute(t)
}

// TriggerByState is TryTriggerByState with a warning when nothing matches.
func (m *StateMachine) TriggerByState(id string) {
	if !m.CanTriggerTransitions() {
		return
	}
	t := m.resolve(func(t *domain.Transition) bool { return t.TargetID == id })
	if t == nil {
		m.logger.Warn("no transition from the current state to this state",
			"target", id, "current", m.current)
		return
	}
	m.execute(t)
}

// TriggerTransition fires t directly. t must belong to the graph and leave
// the current state or the any-state node.
func (m *StateMachine) TriggerTransition(t *domain.Transition) bool {
	if !m.CanTriggerTransitions() {
		return false
	}
	if t == nil {
		m.logger.Warn("failed to trigger transition, it is nil")
		return false
	}
	if own, ok := m.graph.TryGetTransition(t.ID); !ok || own != t {
		m.logger.Warn("failed to trigger transition, it does not belong to this graph", "transition", t.ID)
		return false
	}
	if !m.leavesCurrent(t) {
		m.logger.Warn("failed to trigger transition, the current state is not its origin",
			"transition", t.ID, "origin", t.OriginID, "current", m.current)
		return false
	}
	return m.execute(t)
}

// resolve scans transitions in graph order, preferring those that leave the
// current state over those that leave the any-state node.
func (m *StateMachine) resolve(match func(*domain.Transition) bool) *domain.Transition {
	transitions := m.graph.Transitions()

	for _, t := range transitions {
		if match(t) && t.OriginID == m.current {
			return t
		}
	}
	for _, t := range transitions {
		if match(t) && m.graph.IsAnyState(t.OriginID) {
			return t
		}
	}
	return nil
}

func (m *StateMachine) leavesCurrent(t *domain.Transition) bool {
	node, ok := m.graph.TryGetNode(t.OriginID)
	if !ok {
		return false
	}
	switch n := node.(type) {
	case *domain.State:
		return n.ID == m.current
	case *domain.AnyState:
		return true
	}
	return false
}

// execute runs t under the loop guard. The outermost call records its
// origin; a nested call leaving the same origin is rejected, which stops
// cycles of states that trigger their successor on enter.
func (m *StateMachine) execute(t *domain.Transition) bool {
	owner := false
	switch {
	case m.loopOrigin == "":
		m.loopOrigin = t.OriginID
		owner = true
	case t.OriginID == m.loopOrigin:
		m.logger.Warn("stopped executing transition due to a transition loop",
			"transition", t.ID, "origin", m.loopOrigin)
		return false
	}
	if owner {
		defer func() { m.loopOrigin = "" }()
	}

	m.callbacks.TriggerTransition.Emit(t)
	m.handler.Execute(t)
	return true
}
