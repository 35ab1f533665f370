// Package report prints a pipeline run to the console.
//
// A Printer is registered as the runner's observer. It writes a banner,
// one numbered section per stage, live streamed fragments, and a final
// status line built by a StatusFunc. Text results are rendered as
// markdown with glamour and styled with lipgloss unless Config.Plain is
// set. Failures go to the error writer so a report piped to a file stays
// clean.
package report
