// Package report renders matrices and run results for people: a static
// HTML page, a terminal table, a run summary and live progress lines.
package report
