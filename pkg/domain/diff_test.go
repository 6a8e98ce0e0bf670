package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	str := func(s string) *string { return &s }
	yes := true

	tests := []struct {
		name     string
		old      *Snapshot
		new      *Snapshot
		wantDiff *SnapshotDiff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  &Snapshot{Name: "door", Current: "closed"},
			wantDiff: &SnapshotDiff{
				Name:       "door",
				Current:    str("closed"),
				Previous:   str(""),
				Paused:     new(bool),
				Transition: str(""),
			},
		},
		{
			name:     "No Changes",
			old:      &Snapshot{Name: "door", Current: "closed", Previous: "open"},
			new:      &Snapshot{Name: "door", Current: "closed", Previous: "open"},
			wantDiff: nil,
		},
		{
			name: "State Change",
			old:  &Snapshot{Name: "door", Current: "closed"},
			new:  &Snapshot{Name: "door", Current: "open", Previous: "closed"},
			wantDiff: &SnapshotDiff{
				Name:     "door",
				Current:  str("open"),
				Previous: str("closed"),
			},
		},
		{
			name: "Paused Mid Transition",
			old:  &Snapshot{Name: "door", Current: "closed", Transition: "open-slowly"},
			new:  &Snapshot{Name: "door", Current: "closed", Transition: "open-slowly", Paused: true},
			wantDiff: &SnapshotDiff{
				Name:   "door",
				Paused: &yes,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if !reflect.DeepEqual(got, tt.wantDiff) {
				gotJSON, _ := json.Marshal(got)
				wantJSON, _ := json.Marshal(tt.wantDiff)
				t.Errorf("Diff() = %s, want %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestDiff_JSONOmitsUnchanged(t *testing.T) {
	d := Diff(
		&Snapshot{Name: "door", Current: "closed"},
		&Snapshot{Name: "door", Current: "open", Previous: "closed"},
	)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if strings.Contains(s, "paused") || strings.Contains(s, "transition") {
		t.Errorf("expected unchanged fields to be omitted, got %s", s)
	}
}
