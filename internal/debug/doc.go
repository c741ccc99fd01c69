// Package debug implements the control layer between a running machine and an interactive
// front-end: run, step, stop, reset, breakpoints, and cooperative suspension on input-wait.
//
// A Controller owns exactly one goroutine that steps the machine; every command a front-end issues
// — load, run, step, stop, reset, feed input — is marshaled onto that goroutine over a channel so
// the machine's mutable state is never touched from two goroutines at once. The
// breakpoint set is the one exception: it is guarded by its own mutex instead, since both the
// front-end (editing it) and the engine loop (reading it, once per instruction) need uncontended
// access to it.
package debug
