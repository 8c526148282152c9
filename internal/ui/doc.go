// Package ui runs build phases and reports their progress.
//
// A [UI] hands out a scoped [Runner] session. The runner executes steps in
// the order the build engine calls it and publishes an [event.Event] for
// every reporting call and step transition; rendering happens in bus
// subscribers, never in the runner itself.
//
// Two implementations ship with the package:
//
//   - [Terminal] renders events as styled lines with lipgloss. Debug lines
//     from running steps are only printed in verbose mode, and colors are
//     only used when the output is a terminal unless forced.
//   - [Recorder] records every runner call and every event. Tests use it as
//     the standard fake, and the CLI wraps the terminal with it to write
//     build summaries.
//
// # Skip filters
//
// Pre and Post skip steps whose id matches a filter; Steps skips a whole
// project group when the group id matches. Filters are glob patterns
// (github.com/gobwas/glob), so a literal id matches itself and "web-*"
// matches every id with that prefix. Steps without an id are never skipped.
// A skipped step or group is still reported.
package ui
