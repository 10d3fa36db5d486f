// Package engine holds the pure computations of the tracker: parent task
// progress rollup, the scoring formula, goal period windows and progress,
// and the work session, timer and break state machines.
//
// Nothing in this package performs I/O. Callers fetch the records, hand
// them in, and persist whatever comes back.
package engine
