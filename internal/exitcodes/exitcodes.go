package exitcodes

// Exit codes for broom.
// A run that finishes is a success even when some removals failed.
const (
	Success      = 0 // Successful execution
	InvalidArgs  = 2 // Unknown category, output format or log option
	RuntimeError = 4 // History database, log file or other runtime failure
)
