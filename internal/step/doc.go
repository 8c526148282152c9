// Package step defines build steps and how composite steps execute.
//
// A [Step] is an optional label, an optional id used by skip filters, a run
// body and optionally nested children. [Composite] wraps a list of steps into
// a single step whose children run concurrently; the composite fails with the
// first child failure as soon as it happens.
//
// # Concurrency
//
// Children of a composite, like the projects a build resolves, are assumed
// independent. [Join] and [Map] are the fail-fast joins used for both: the
// caller gets the first error immediately and stops waiting, but goroutines
// that are already running are neither cancelled nor awaited. They finish in
// the background and their results are dropped. Step bodies that hold
// resources should watch the context they are given.
//
// A [Runner] passed to a step may be used from several goroutines at once.
package step
