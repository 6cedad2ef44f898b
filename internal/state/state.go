// Package state persists ingestion progress: the timestamp of the last
// successfully ingested timestep.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/synop-ingest/internal/domain"
)

// FileName is the state file's name inside the state directory.
const FileName = "state.json"

const lastUpdateKey = "last_update"

// State is the persisted progress record.
type State struct {
	LastUpdate string `json:"last_update"`
}

// Tracker reads and writes the state file. It assumes a single writer.
type Tracker struct {
	path   string
	logger *slog.Logger
}

// NewTracker returns a Tracker for dir/state.json.
func NewTracker(dir string, logger *slog.Logger) *Tracker {
	return &Tracker{
		path:   filepath.Join(dir, FileName),
		logger: logger.With("component", "state"),
	}
}

// Path returns the state file location.
func (t *Tracker) Path() string { return t.path }

// Read returns the persisted state. A missing or unparsable file is replaced
// by an empty state, which is then returned.
func (t *Tracker) Read() (State, error) {
	fields, err := t.load()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		t.logger.Info("state file not found, creating", "path", t.path)
		return t.reset()
	case errors.Is(err, errCorrupt):
		t.logger.Warn("state file unparsable, resetting", "path", t.path, "error", err)
		return t.reset()
	case err != nil:
		return State{}, err
	}

	var st State
	if raw, ok := fields[lastUpdateKey]; ok {
		if err := json.Unmarshal(raw, &st.LastUpdate); err != nil {
			t.logger.Warn("state field unparsable, resetting", "path", t.path, "error", err)
			return t.reset()
		}
	}
	return st, nil
}

// LastUpdate returns the last ingested timestep, or false when none is
// recorded. A recorded value that is not a timestamp counts as none.
func (t *Tracker) LastUpdate() (time.Time, bool, error) {
	st, err := t.Read()
	if err != nil {
		return time.Time{}, false, err
	}
	if st.LastUpdate == "" {
		return time.Time{}, false, nil
	}
	ts, err := domain.ParseTimestamp(st.LastUpdate)
	if err != nil {
		t.logger.Warn("ignoring invalid last_update", "value", st.LastUpdate, "error", err)
		return time.Time{}, false, nil
	}
	return ts, true, nil
}

// Write records lastUpdate, keeping any other fields already in the file.
func (t *Tracker) Write(lastUpdate string) error {
	fields, err := t.load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, errCorrupt) {
		return err
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage)
	}

	value, err := json.Marshal(lastUpdate)
	if err != nil {
		return fmt.Errorf("encode last_update: %w", err)
	}
	fields[lastUpdateKey] = value
	return t.save(fields)
}

// WriteTimestep records ts as the last ingested timestep.
func (t *Tracker) WriteTimestep(ts time.Time) error {
	return t.Write(domain.FormatTimestamp(ts))
}

var errCorrupt = errors.New("state file corrupt")

func (t *Tracker) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	return fields, nil
}

func (t *Tracker) reset() (State, error) {
	empty := map[string]json.RawMessage{lastUpdateKey: json.RawMessage(`""`)}
	if err := t.save(empty); err != nil {
		return State{}, err
	}
	return State{}, nil
}

func (t *Tracker) save(fields map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(fields, "", "    ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return writeAtomic(t.path, data)
}
