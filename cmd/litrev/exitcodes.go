package main

// Exit codes
const (
	ExitSuccess      = 0 // Success
	ExitError        = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError  = 2 // Configuration error (invalid pipeline config, bad filter stage)
	ExitDataError    = 3 // Data error (unreadable or malformed input table)
	ExitNetworkError = 4 // NCBI unreachable, rate limited or returned an error
)
