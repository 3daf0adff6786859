package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// readLines feeds every input line to fn with the trailing line ending
// trimmed, until EOF or context cancellation. Lines of arbitrary length are
// supported; a final line without a newline is still delivered.
func readLines(ctx context.Context, in io.Reader, fn func(line string)) error {
	reader := bufio.NewReader(in)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := reader.ReadString('\n')

		switch {
		case err == nil:
			fn(trimLineEnding(line))
		case err == io.EOF:
			if line != "" {
				fn(trimLineEnding(line))
			}

			return nil
		default:
			return fmt.Errorf("%w: %w", errStdinRead, err)
		}
	}
}

// trimLineEnding removes one trailing "\n" or "\r\n". A bare carriage
// return without a newline is payload, not a line ending.
func trimLineEnding(line string) string {
	if strings.HasSuffix(line, "\n") {
		line = line[:len(line)-1]
		line = strings.TrimSuffix(line, "\r")
	}

	return line
}
