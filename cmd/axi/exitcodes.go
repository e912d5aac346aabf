package main

// Exit codes returned by axi commands.
const (
	ExitSuccess       = 0 // Success
	ExitError         = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError   = 2 // Configuration error (missing repository or config) / Index not found
	ExitDataError     = 3 // Data error (malformed input, corrupt snapshot) / Ollama not available
	ExitNotIndexed    = 4 // Paper is not in the semantic index
	ExitModelNotFound = 5 // Embedding model not found
	ExitIndexStale    = 6 // Semantic index is stale or built with another model

	ExitArxivError = 7 // arXiv request failed (rate limit, network, HTTP error)
)
