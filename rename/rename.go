// Package rename computes new file names from templates and organizes
// folders of documents.
package rename

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wudi/docflow/fileutil"
)

// DefaultPattern is used when a caller passes an empty pattern.
const DefaultPattern = "doc_{date}_{counter}"

// Renamer fills rename templates. Its counter starts at 1 and advances once
// per successful rename that uses {counter}. A Renamer is not safe for
// concurrent use; construct one per batch run.
type Renamer struct {
	counter int
	now     func() time.Time
}

// New returns a Renamer with its counter at 1.
func New() *Renamer {
	return &Renamer{counter: 1, now: time.Now}
}

// WithClock replaces the time source used for {date} and {time}.
func (r *Renamer) WithClock(now func() time.Time) *Renamer {
	r.now = now
	return r
}

// Counter returns the value the next {counter} placeholder will receive.
func (r *Renamer) Counter() int { return r.counter }

// Name computes the new file name for path without touching the
// filesystem or the counter. Supported placeholders: {date} (YYYYMMDD),
// {time} (HHMMSS), {counter} (3-digit zero padded) and {original} (source
// name without extension). The source extension is appended verbatim.
func (r *Renamer) Name(path, pattern string) string {
	if pattern == "" {
		pattern = DefaultPattern
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	now := r.now()
	repl := strings.NewReplacer(
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
		"{counter}", fmt.Sprintf("%03d", r.counter),
		"{original}", strings.TrimSuffix(base, ext),
	)
	return repl.Replace(pattern) + ext
}

// Rename copies path into outDir under the name computed from pattern and
// returns that name. The source file is left untouched.
func (r *Renamer) Rename(path, outDir, pattern string) (string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	name := r.Name(path, pattern)
	if name == filepath.Ext(name) || strings.ContainsRune(name, filepath.Separator) {
		return "", fmt.Errorf("pattern %q yields invalid file name %q", pattern, name)
	}
	if err := fileutil.CopyFile(path, filepath.Join(outDir, name)); err != nil {
		return "", fmt.Errorf("copy to %s: %w", name, err)
	}
	if strings.Contains(pattern, "{counter}") {
		r.counter++
	}
	return name, nil
}

// Pair is one in-place rename.
type Pair struct {
	Old string
	New string
}

// BatchRename renames every regular file of folder in place. The pattern
// supports {n}, the 1-based position of the entry in the sorted listing
// zero padded to 3 digits, and {name}, the file name without extension.
// Existing files are never overwritten; the pairs renamed before a failure
// are returned with the error.
func BatchRename(folder, pattern string) ([]Pair, error) {
	entries, err := os.ReadDir(folder) // sorted by name
	if err != nil {
		return nil, err
	}

	var pairs []Pair
	for i, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		old := e.Name()
		ext := filepath.Ext(old)
		name := strings.NewReplacer(
			"{n}", fmt.Sprintf("%03d", i+1),
			"{name}", strings.TrimSuffix(old, ext),
		).Replace(pattern) + ext
		if name == old {
			pairs = append(pairs, Pair{Old: old, New: name})
			continue
		}
		dst := filepath.Join(folder, name)
		if _, err := os.Lstat(dst); err == nil {
			return pairs, fmt.Errorf("rename %s: %w", old, fs.ErrExist)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return pairs, err
		}
		if err := os.Rename(filepath.Join(folder, old), dst); err != nil {
			return pairs, err
		}
		pairs = append(pairs, Pair{Old: old, New: name})
	}
	return pairs, nil
}
