package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/vsm/internal/validator"
	"github.com/aretw0/vsm/pkg/domain"
)

// Report describes a graph as markdown: its states, its transitions and
// whatever validation finds.
func Report(name string, g *domain.Graph) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", name)
	fmt.Fprintf(&sb, "Entry state: **%s**\n\n", g.EntryStateID)

	sb.WriteString("## States\n\n")
	for _, n := range g.Nodes() {
		switch n := n.(type) {
		case *domain.State:
			if n.ID == g.EntryStateID {
				fmt.Fprintf(&sb, "- `%s` (entry)\n", n.ID)
			} else {
				fmt.Fprintf(&sb, "- `%s`\n", n.ID)
			}
		case *domain.AnyState:
			fmt.Fprintf(&sb, "- `%s` (any state)\n", n.ID)
		}
	}

	sb.WriteString("\n## Transitions\n\n")
	transitions := g.Transitions()
	if len(transitions) == 0 {
		sb.WriteString("None.\n")
	} else {
		sb.WriteString("| ID | From | To | Label | Duration |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, t := range transitions {
			duration := "instant"
			if t.IsTimed() {
				duration = t.Duration.String()
				if t.TimeMode == domain.TimeModeUnscaled {
					duration += " (unscaled)"
				}
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n", t.ID, t.OriginID, t.TargetID, t.Label, duration)
		}
	}

	if err := g.Validate(); err != nil {
		sb.WriteString("\n## Problems\n\n")
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Fprintf(&sb, "- %s\n", line)
		}
	}

	if warnings := validator.Lint(g); len(warnings) > 0 {
		sb.WriteString("\n## Warnings\n\n")
		for _, w := range warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
	}

	return sb.String()
}
