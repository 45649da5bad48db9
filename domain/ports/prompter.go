package ports

// Prompter reads command lines and renders the default prompt.
type Prompter interface {
	// ReadLine blocks for the next input line, without the trailing
	// newline. It returns io.EOF at end of input.
	ReadLine() (string, error)

	// WriteDefault renders the host's default prompt.
	WriteDefault() error
}
