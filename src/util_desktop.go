package main

import (
	"fmt"
	"io"
	"os"
)

// Log writer implementation
func NewLogWriter() io.Writer {
	return os.Stderr
}

// Without a window there is no message box; errors go to stderr.
func ShowErrorDialog(message string) {
	fmt.Fprintf(os.Stderr, "Costume-GO Error: %s\n", message)
}
