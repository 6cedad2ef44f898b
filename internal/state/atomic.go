package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// writeAtomic replaces path with data so that readers see either the old or
// the new content. The temporary file lives next to path so the final rename
// stays on one filesystem. An existing file's mode and ownership carry over.
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if info, statErr := os.Stat(path); statErr == nil {
		if err = tmp.Chmod(info.Mode().Perm()); err != nil {
			return fmt.Errorf("copy state mode: %w", err)
		}
		if err = copyOwner(tmp, info); err != nil {
			return fmt.Errorf("copy state owner: %w", err)
		}
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return fmt.Errorf("stat state: %w", statErr)
	}

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp state: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp state: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
