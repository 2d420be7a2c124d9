// Package diag defines the diagnostic model shared by the backend, the driver
// and the CLI.
//
// Producers emit findings through a Reporter and never print. BagReporter
// collects them into a bounded Bag; DedupReporter drops repeats. Rendering to
// text lives in format.go (plain, stable one-line form) and in cmd/halfbyte
// (colored form).
//
// Severity is tri-level. Errors block image production, warnings never do.
// Internal invariant violations of the backend are reported with BCK codes and
// always come with a returned Go error as well.
package diag
