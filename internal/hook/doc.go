// Package hook provides ordered, named extension points that plugins tap.
//
// Two dispatch modes exist:
//
//   - [Series]: every tap receives the same argument and is invoked once, in
//     registration order. Taps communicate by mutating what they are given.
//   - [Waterfall]: every tap receives the value returned by the previous tap
//     (the seed for the first one) plus a fixed argument, and returns the
//     next accumulated value. The final value is the dispatch result.
//
// Dispatch is always sequential: a tap may depend on the side effects or the
// return value of an earlier one, so taps are never reordered or run in
// parallel. The first tap error aborts the chain and is returned to the
// caller wrapped in an [errors.TapError]; no partial result is exposed.
//
// Every tap carries a [Token] naming the plugin that registered it. Tokens
// have no runtime behavior; they show up in logs, traces and errors.
//
// Hooks are cheap and meant to be created fresh for each build invocation.
// [Lazy] and the TapLazy methods defer plugin initialization until the hook
// first fires and memoize it for the lifetime of that hook.
package hook
