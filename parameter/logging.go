package parameter

// Logging
const (
	// LogDir holds debug logs of the command line tools
	LogDir = "logs"

	// MaxLogSize rotates a log file beyond this size (10 MiB)
	MaxLogSize = 10 * 1024 * 1024
)
