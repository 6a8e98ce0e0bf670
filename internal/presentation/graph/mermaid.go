package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/vsm/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	PreviousState string
	CurrentState  string
}

// OverlayFromSnapshot builds an overlay for a machine position.
func OverlayFromSnapshot(s domain.Snapshot) *GraphOverlay {
	return &GraphOverlay{
		PreviousState: s.Previous,
		CurrentState:  s.Current,
	}
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a graph.
// It applies semantic styling:
// - Entry: ((Circle))
// - Any-state: {{Hexagon}}, with dotted edges
// - Default: [Rectangle]
// Timed transitions carry their duration in the edge label. Overlay styles
// (previous/current) are applied if provided.
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes() {
		safeID := sanitizeMermaidID(node.NodeID())

		opener, closer := "[", "]"
		switch n := node.(type) {
		case *domain.AnyState:
			opener, closer = "{{", "}}"
		case *domain.State:
			if n.ID == g.EntryStateID {
				opener, closer = "((", "))"
			}
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escape(node.NodeID()), closer)
	}

	for _, t := range g.Transitions() {
		safeFrom := sanitizeMermaidID(t.OriginID)
		safeTo := sanitizeMermaidID(t.TargetID)
		wildcard := g.IsAnyState(t.OriginID)

		var parts []string
		if t.Label != "" {
			parts = append(parts, escape(t.Label))
		}
		if t.IsTimed() {
			timed := "⏱️ " + t.Duration.String()
			if t.TimeMode == domain.TimeModeUnscaled {
				timed += " (real)"
			}
			parts = append(parts, timed)
		}

		var arrow string
		switch {
		case len(parts) == 0 && wildcard:
			arrow = "-.->"
		case len(parts) == 0:
			arrow = "-->"
		case wildcard:
			arrow = fmt.Sprintf("-. \"%s\" .->", strings.Join(parts, " "))
		default:
			arrow = fmt.Sprintf("-- \"%s\" -->", strings.Join(parts, " "))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", safeFrom, arrow, safeTo)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef previous fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		if overlay.PreviousState != "" && overlay.PreviousState != overlay.CurrentState {
			fmt.Fprintf(&sb, "    class %s previous;\n", sanitizeMermaidID(overlay.PreviousState))
		}
		if overlay.CurrentState != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentState))
		}
	}

	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
