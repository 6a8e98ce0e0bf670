package domain

// SnapshotDiff lists the fields that changed between two snapshots.
// It is designed to be serialized to JSON for partial updates on clients.
type SnapshotDiff struct {
	// Name is always present to identify the machine.
	Name string `json:"name"`

	Current    *string `json:"current,omitempty"`
	Previous   *string `json:"previous,omitempty"`
	Paused     *bool   `json:"paused,omitempty"`
	Transition *string `json:"transition,omitempty"`
}

// Diff calculates the difference between old and new.
// If old is nil, it returns a diff carrying every field of new (initial load).
// It returns nil when nothing changed.
func Diff(old, new *Snapshot) *SnapshotDiff {
	if new == nil {
		return nil
	}

	diff := &SnapshotDiff{Name: new.Name}

	if old == nil || old.Current != new.Current {
		diff.Current = &new.Current
	}
	if old == nil || old.Previous != new.Previous {
		diff.Previous = &new.Previous
	}
	if old == nil || old.Paused != new.Paused {
		diff.Paused = &new.Paused
	}
	if old == nil || old.Transition != new.Transition {
		diff.Transition = &new.Transition
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any change.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.Current == nil &&
		d.Previous == nil &&
		d.Paused == nil &&
		d.Transition == nil
}
