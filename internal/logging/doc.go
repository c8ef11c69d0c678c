// Package logging provides file-based logging with rotation for ainav.
// The ainav command writes JSON logs to ~/.ainav/logs/daemon.log: at info
// level by default, and at debug level when the --debug flag is set.
//
// Log lines go to stderr only when Config.WriteToStderr is set; the ainav
// command leaves it off.
package logging
