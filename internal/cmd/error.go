package cmd

// Error is a user-facing error with an optional suggestion for how to
// resolve it. Use it for communication, not stacktraces.
type Error struct {
	// Message is a human readable description of what went wrong. Full
	// sentences.
	Message string

	// OriginalError is the error that bubbled up. Set it only when it should
	// be printed as part of the user-facing message.
	OriginalError error

	// Suggestion tells the user how to resolve the error.
	Suggestion string
}

func (e Error) Error() string {
	output := e.Message
	if e.OriginalError != nil {
		if output != "" {
			output += ": "
		}
		output += e.OriginalError.Error()
	}

	if len(e.Suggestion) > 0 {
		output += "\n\n" + e.Suggestion
	}

	return output
}

func (e Error) Unwrap() error {
	return e.OriginalError
}
