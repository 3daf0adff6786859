package cli

import (
	"strings"

	"github.com/natefinch/atomic"
)

// emit writes a command's result either to stdout or, when path is
// non-empty, atomically to a file. The atomic write uses a temp file plus
// rename so a partially written result file is never observed.
func emit(o *IO, path, content string) error {
	if path == "" {
		o.Printf("%s", content)
		return nil
	}

	return atomic.WriteFile(path, strings.NewReader(content))
}
