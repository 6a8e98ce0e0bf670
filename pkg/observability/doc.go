/*
Package observability provides Prometheus metrics for state machines.

Metrics subscribe to a machine's callbacks, so they see exactly what scripts
see: accepted triggers, completed transitions and state entries. The
vsm_current_state gauge marks the active state of every attached machine.
*/
package observability
