// Package report renders a finished run's SharedState into the line-oriented
// text format (header line, data line, optional
// stats block) and produces the storage.RunRecord handed to an optional
// history sink.
package report
