package domain

import "errors"

// ErrDuplicateID is returned when two nodes or two transitions share an ID.
var ErrDuplicateID = errors.New("duplicate id")

// ErrEmptyID is returned when a node or transition has no ID.
var ErrEmptyID = errors.New("empty id")

// ErrInvalidGraph wraps every problem reported by Graph.Validate.
var ErrInvalidGraph = errors.New("invalid graph")

// ErrSnapshotNotFound is returned when a snapshot cannot be found in a store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrMachineNotFound is returned by hosts when no machine is registered under a name.
var ErrMachineNotFound = errors.New("machine not found")
