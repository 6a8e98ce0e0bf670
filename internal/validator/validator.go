// Package validator finds graph smells that are legal but usually mistakes.
// Structural errors are reported by domain.Graph.Validate.
package validator

import (
	"fmt"

	"github.com/aretw0/vsm/pkg/domain"
)

// Reachable crawls the graph from the entry state and returns the set of
// states a running machine can reach. Transitions leaving the any-state node
// apply from every reached state.
func Reachable(g *domain.Graph) map[string]bool {
	visited := make(map[string]bool)
	if !g.HasState(g.EntryStateID) {
		return visited
	}

	var wildcard []string
	for _, t := range g.Transitions() {
		if g.IsAnyState(t.OriginID) && g.HasState(t.TargetID) {
			wildcard = append(wildcard, t.TargetID)
		}
	}

	queue := []string{g.EntryStateID}
	queue = append(queue, wildcard...)

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		for _, t := range g.Transitions() {
			if t.OriginID != currentID || !g.HasState(t.TargetID) {
				continue
			}
			if !visited[t.TargetID] {
				queue = append(queue, t.TargetID)
			}
		}
	}
	return visited
}

// Lint returns warnings for states no run can reach and for labelled
// transitions that can never fire by label because an earlier transition
// from the same origin has the same label.
func Lint(g *domain.Graph) []string {
	var warnings []string

	reached := Reachable(g)
	if len(reached) > 0 {
		for _, s := range g.States() {
			if !reached[s.ID] {
				warnings = append(warnings, fmt.Sprintf("state %q is unreachable from %q", s.ID, g.EntryStateID))
			}
		}
	}

	type key struct{ origin, label string }
	first := make(map[key]string)
	for _, t := range g.Transitions() {
		if t.Label == "" {
			continue
		}
		k := key{t.OriginID, t.Label}
		if winner, ok := first[k]; ok {
			warnings = append(warnings, fmt.Sprintf("transition %q is shadowed by %q for label %q", t.ID, winner, t.Label))
			continue
		}
		first[k] = t.ID
	}
	return warnings
}
