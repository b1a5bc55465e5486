package main

// Exit codes shared across commands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing repository, invalid settings)
	ExitDataError   = 3 // Data error (malformed records, validation failure)
	ExitNotFound    = 4 // Record not found in the index
)
