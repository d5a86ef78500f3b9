package system

import "log"

var logf = log.Printf

// SetLogger redirects the systems' diagnostics. A nil fn restores the
// standard logger.
func SetLogger(fn func(format string, args ...any)) {
	if fn == nil {
		logf = log.Printf
		return
	}
	logf = fn
}
