// Package bufr runs the external BUFR tools: the edition converter and the
// report decoder.
package bufr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// ErrConversionFailed is returned when the converter reports any diagnostic
// output or exits non-zero.
var ErrConversionFailed = errors.New("bufr conversion failed")

// Converter rewrites a BUFR edition 3 file as edition 4 using an
// ecCodes-style "bufr_set" executable.
type Converter struct {
	command string
	args    []string
	logger  *slog.Logger
}

// NewConverter returns a Converter running command. Extra args are placed
// before the edition arguments.
func NewConverter(command string, args []string, logger *slog.Logger) *Converter {
	return &Converter{
		command: command,
		args:    args,
		logger:  logger.With("component", "converter"),
	}
}

// Convert writes the edition 4 form of input to output. Any stderr output
// counts as failure, even with a zero exit status.
func (c *Converter) Convert(ctx context.Context, input, output string) error {
	args := append(append([]string{}, c.args...), "-s", "edition=4", input, output)
	cmd := exec.CommandContext(ctx, c.command, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.logger.Debug("converting", "input", input, "output", output)
	runErr := cmd.Run()

	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return fmt.Errorf("%w: %s", ErrConversionFailed, msg)
	}
	if runErr != nil {
		return fmt.Errorf("%w: %v", ErrConversionFailed, runErr)
	}
	if _, err := os.Stat(output); err != nil {
		return fmt.Errorf("%w: no output: %v", ErrConversionFailed, err)
	}
	return nil
}
