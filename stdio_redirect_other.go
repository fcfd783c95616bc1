//go:build !unix

package main

import (
	"fmt"
	"os"
	"time"
)

// redirectStdIO swaps the os.Stdout and os.Stderr handles. Runtime panics
// still go to the original stderr on these platforms.
func redirectStdIO(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open stdio log: %w", err)
	}
	fmt.Fprintf(f, "--- %s started %s ---\n", os.Args[0], time.Now().Format(time.RFC3339))
	os.Stdout = f
	os.Stderr = f
	return nil
}
