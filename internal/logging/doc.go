// Package logging provides opt-in file-based logging with rotation. When a
// debug flag is set, comprehensive logs are written to ~/.libsearch/logs/
// for troubleshooting.
//
// By default logging is minimal and goes to stderr only.
package logging
