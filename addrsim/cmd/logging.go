package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/tebeka/atexit"
)

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(strings.TrimSpace(s)))
	if err != nil {
		return level, fmt.Errorf("invalid log level %q", s)
	}

	return level, nil
}

// newLogger creates a text logger that writes to w and, if logFile is not
// empty, also appends to the file.
func newLogger(w io.Writer, levelName, logFile string) (*slog.Logger, error) {
	level, err := parseLevel(levelName)
	if err != nil {
		return nil, err
	}

	if logFile != "" {
		f, err := os.OpenFile(logFile,
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}

		atexit.Register(func() { f.Close() })

		w = io.MultiWriter(w, f)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})

	return slog.New(handler), nil
}
