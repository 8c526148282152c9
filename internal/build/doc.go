// Package build runs a workspace build.
//
// [Run] wires plugins to a fresh set of hooks, resolves every project's
// variants into steps and hands the resulting plan to a [ui.UI] session. The
// flow of one invocation is:
//
//  1. Apply the workspace plugins and dispatch the workspace build hook.
//  2. For every project, concurrently: apply its plugins, dispatch the
//     project build hook, fire the two-tier project hooks, then resolve.
//  3. Dispatch workspace configure, then pre and post, each seeded empty.
//  4. Run pre, a separator, the web app groups, the package groups, the
//     service groups and post, then print the epilogue.
//
// Resolving a project dispatches its variants waterfall; no variants means
// one pass with the empty variant. Each variant gets its own Configuration,
// context and step list, and passes for one project run concurrently. One
// variant yields a single composite step labeled "Build <kind>"; several
// yield one composite per variant labeled "Build <variant> <kind> variant".
//
// Any tap error aborts the build before a single step has run.
package build
