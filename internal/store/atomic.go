package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// backupTimestamp formats local time at second precision for backup names.
// Collisions are tolerated: the backup is advisory, not a journal.
const backupTimestamp = "20060102-150405"

// persist writes the pre-mutation document to a timestamped .bak sibling,
// serializes the post-mutation document to a .tmp sibling, then renames the
// temp file over the target. The rename is the commit point: the target is
// either fully the old content or fully the new one, never partial. A temp
// file may be orphaned when a step fails; it never shadows the target.
// Returns the base name of the backup file.
func (s *Store) persist(name string, prev, next any) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}

	prevData, err := marshalDocument(prev)
	if err != nil {
		return "", errors.Wrapf(ErrWriteError, "serialize backup of %s: %v", name, err)
	}
	backupPath := fmt.Sprintf("%s.bak.%s", path, time.Now().Format(backupTimestamp))
	if err := os.WriteFile(backupPath, prevData, 0o644); err != nil {
		return "", errors.Wrapf(ErrWriteError, "write backup %s: %v", filepath.Base(backupPath), err)
	}

	nextData, err := marshalDocument(next)
	if err != nil {
		return "", errors.Wrapf(ErrWriteError, "serialize %s: %v", name, err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, nextData, 0o644); err != nil {
		return "", errors.Wrapf(ErrWriteError, "write %s.tmp: %v", name, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return "", errors.Wrapf(ErrWriteError, "replace %s: %v", name, err)
	}
	return filepath.Base(backupPath), nil
}
