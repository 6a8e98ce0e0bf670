/*
Package domain contains the core model of the state machine runtime.

It defines the graph (states, the wildcard any-state node and transitions), the
ordered observer lists used for notifications, the time and transition modes,
and the serializable Snapshot of a machine position. The package is pure: it has
no I/O and no dependency on the runtime that executes the graph.

# Key Entities

  - Node: a *State or the *AnyState wildcard, dispatched with a type switch.
  - Transition: a directed edge with a label, a duration and a time mode.
  - Graph: immutable lookup structure built once from a definition.
  - Callbacks: the five machine-level notification points.
  - Snapshot: the position of a machine, used by hosts and stores.
*/
package domain
