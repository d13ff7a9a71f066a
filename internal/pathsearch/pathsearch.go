// Package pathsearch computes the candidate locations of a shared
// configuration file: the working directory and its "instance"
// subdirectory, every parent directory up to the filesystem root, and
// the user's home directory (plain and dot-prefixed).
package pathsearch

import (
	"os"
	"path/filepath"
)

// Parents lists every parent directory of leaf, outermost last. With
// includeLeaf the leaf itself comes first. Duplicate entries caused by
// path normalization are suppressed.
func Parents(leaf string, includeLeaf bool) []string {
	leaf = filepath.Clean(leaf)

	var out []string
	if includeLeaf {
		out = append(out, leaf)
	}
	seen := map[string]bool{leaf: true}
	dir := leaf
	for {
		next := filepath.Dir(dir)
		if next == dir || seen[next] {
			break
		}
		seen[next] = true
		dir = next
		out = append(out, dir)
	}
	return out
}

// Candidates returns the paths where a file named name may live,
// relative to cwd and the user's home directory, most specific first:
//
//	<cwd>/instance/<name>
//	<cwd>/<name>
//	<parent>/<name> for every parent of cwd
//	$HOME/<name>
//	$HOME/.<name>
func Candidates(name, cwd string) []string {
	dirs := Parents(filepath.Join(cwd, "instance"), true)

	out := make([]string, 0, len(dirs)+2)
	for _, dir := range dirs {
		out = append(out, filepath.Join(dir, name))
	}
	if home, err := os.UserHomeDir(); err == nil {
		out = append(out,
			filepath.Join(home, name),
			filepath.Join(home, "."+name),
		)
	}
	return out
}

// Existing filters candidates down to the paths that exist as regular
// files.
func Existing(candidates []string) []string {
	var out []string
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			out = append(out, path)
		}
	}
	return out
}
