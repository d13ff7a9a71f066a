// Package walker provides a pull-based file tree walker. Unlike the
// callback-style walkers in the standard library it hands out one file
// per call, which lets callers feed paths into prefetching pipelines and
// stop early without sentinel errors.
package walker

import (
	"os"
	"path/filepath"
)

// Walker iterates over all regular files below one or more root paths.
// Directories are expanded lazily as the walk reaches them; no traversal
// order is guaranteed.
type Walker struct {
	stack []string
}

// New creates a walker over the given roots. A root may be a file, which
// is then yielded as-is.
func New(roots ...string) *Walker {
	stack := make([]string, len(roots))
	copy(stack, roots)
	return &Walker{stack: stack}
}

// Next returns the next file path. A non-nil error reports an entry that
// could not be read (the walk continues past it on subsequent calls);
// ok is false once the walk is exhausted.
func (w *Walker) Next() (path string, ok bool, err error) {
	for len(w.stack) > 0 {
		entry := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]

		info, err := os.Stat(entry)
		if err != nil {
			return "", true, err
		}
		if !info.IsDir() {
			return entry, true, nil
		}

		children, err := os.ReadDir(entry)
		if err != nil {
			return "", true, err
		}
		for _, child := range children {
			w.stack = append(w.stack, filepath.Join(entry, child.Name()))
		}
	}
	return "", false, nil
}

// Walk drains the walker, collecting every file path. Entry errors are
// returned alongside the files found so far.
func (w *Walker) Walk() ([]string, []error) {
	var files []string
	var errs []error
	for {
		path, ok, err := w.Next()
		if !ok {
			return files, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, path)
	}
}
