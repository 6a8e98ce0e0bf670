package graph_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aretw0/vsm/internal/presentation/graph"
	"github.com/aretw0/vsm/pkg/domain"
	"github.com/aretw0/vsm/pkg/dsl"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		build    func(b *dsl.Builder)
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Node Shapes",
			build: func(b *dsl.Builder) {
				b.State("start")
				b.State("other")
				b.AnyState("any")
			},
			contains: []string{
				"start((\"start\"))",
				"other[\"other\"]",
				"any{{\"any\"}}",
			},
		},
		{
			name: "ID Sanitization",
			build: func(b *dsl.Builder) {
				b.State("start")
				b.State("path/to.file")
				b.State("hyphen-ated")
			},
			contains: []string{
				"path_to_file[\"path/to.file\"]",
				"hyphen_ated[\"hyphen-ated\"]",
			},
		},
		{
			name: "Edges",
			build: func(b *dsl.Builder) {
				b.State("start").On("go", "moving")
				b.State("moving").Go("start").Duration(1500 * time.Millisecond)
				b.State("moving").On("halt", "start").Duration(time.Second).Unscaled()
				b.AnyState("any")
				b.Transition("reset").From("any").To("start")
				b.Transition("panic").From("any").To("moving").Label("panic")
			},
			contains: []string{
				"start -- \"go\" --> moving",
				"moving -- \"⏱️ 1.5s\" --> start",
				"moving -- \"halt ⏱️ 1s (real)\" --> start",
				"any -.-> start",
				"any -. \"panic\" .-> moving",
			},
		},
		{
			name: "Overlay",
			build: func(b *dsl.Builder) {
				b.State("start").On("go", "moving")
				b.State("moving")
			},
			overlay: graph.OverlayFromSnapshot(domain.Snapshot{Current: "moving", Previous: "start"}),
			contains: []string{
				"classDef current",
				"class moving current;",
				"class start previous;",
			},
		},
		{
			name: "No Overlay",
			build: func(b *dsl.Builder) {
				b.State("start")
			},
			excludes: []string{"classDef"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := dsl.New("start")
			tt.build(b)
			out := graph.GenerateMermaid(b.MustBuild(), tt.overlay)

			assert.True(t, strings.HasPrefix(out, "graph TD\n"))
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}
