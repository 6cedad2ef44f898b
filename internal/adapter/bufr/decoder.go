package bufr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/couchcryptid/synop-ingest/internal/domain"
)

// ErrDecodeFailed is returned when the decoder exits non-zero or its output
// is not a JSON array of collections.
var ErrDecodeFailed = errors.New("bufr decode failed")

// Decoder turns BUFR bytes into decoded collections. The executable reads the
// message on stdin and writes a JSON array of collections on stdout.
type Decoder struct {
	command string
	args    []string
	logger  *slog.Logger
}

// NewDecoder returns a Decoder running command with args.
func NewDecoder(command string, args []string, logger *slog.Logger) *Decoder {
	return &Decoder{
		command: command,
		args:    args,
		logger:  logger.With("component", "decoder"),
	}
}

// Decode feeds the file at path to the decoder and parses its output.
func (d *Decoder) Decode(ctx context.Context, path string) ([]domain.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bufr file: %w", err)
	}

	cmd := exec.CommandContext(ctx, d.command, d.args...)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrDecodeFailed, err, strings.TrimSpace(stderr.String()))
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		d.logger.Warn("decoder diagnostics", "path", path, "stderr", msg)
	}

	var collections []domain.Collection
	if err := json.Unmarshal(stdout.Bytes(), &collections); err != nil {
		return nil, fmt.Errorf("%w: parse output: %v", ErrDecodeFailed, err)
	}
	return collections, nil
}
