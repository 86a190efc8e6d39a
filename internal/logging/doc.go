// Package logging provides opt-in file-based logging with rotation for the
// code-search daemon and CLI. When --debug is set, comprehensive logs are
// written to ~/.codesearch/logs/ for troubleshooting.
//
// By default (without --debug), logging is minimal and goes to stderr only.
package logging
