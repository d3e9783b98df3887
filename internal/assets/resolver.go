// Package assets locates packaged model assets across multiple physical
// roots. Packaging pipelines relocate and rename assets between build
// targets, so a single hard-coded path is never enough: the resolver tries
// an ordered list of candidate paths per root and two read strategies per
// candidate before reporting a miss.
package assets

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Root is one physical location assets may have been packaged into.
type Root struct {
	Name string // for diagnostics
	Fs   afero.Fs
	Dir  string // base directory inside Fs, may be ""
}

// Resolver resolves logical asset paths against an ordered list of roots.
type Resolver struct {
	roots []Root
}

// NotFoundError reports that no candidate path yielded the asset. It carries
// every attempted path so a failed lookup is diagnosable from the log alone.
type NotFoundError struct {
	Logical   string
	Attempted []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("asset %q not found (tried %s)", e.Logical, strings.Join(e.Attempted, ", "))
}

// NewResolver creates a resolver over the given roots, tried in order.
func NewResolver(roots ...Root) *Resolver {
	return &Resolver{roots: roots}
}

// DefaultRoots returns the standard on-disk search roots for a models
// directory: the directory itself, then the working directory for builds
// that flatten assets next to the binary.
func DefaultRoots(modelsDir string) []Root {
	osFs := afero.NewOsFs()
	return []Root{
		{Name: "models-dir", Fs: osFs, Dir: modelsDir},
		{Name: "cwd", Fs: osFs, Dir: "."},
	}
}

// candidatePaths derives the ordered physical candidates for a logical path.
// The logical path is tried verbatim, then with the packaging prefix
// stripped, then by bare basename. Order matters and duplicates are dropped.
func candidatePaths(logical string) []string {
	raw := []string{
		logical,
		strings.TrimPrefix(logical, "assets/"),
		path.Base(logical),
	}
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, c := range raw {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Resolve returns the bytes of the first candidate that can be read.
// Per candidate it first attempts a direct positional read, which fails fast
// on stores that cannot seek (compressed or streamed entries), then falls
// back to a buffered sequential read. The search stops at the first hit.
func (r *Resolver) Resolve(logical string) ([]byte, error) {
	attempted := make([]string, 0, len(r.roots)*3)
	for _, root := range r.roots {
		for _, cand := range candidatePaths(logical) {
			full := cand
			if root.Dir != "" && root.Dir != "." {
				full = path.Join(root.Dir, cand)
			}
			attempted = append(attempted, root.Name+":"+full)

			data, err := readDirect(root.Fs, full)
			if err == nil {
				slog.Debug("Asset resolved via direct read",
					"logical", logical, "root", root.Name, "path", full, "bytes", len(data))
				return data, nil
			}
			slog.Debug("Direct asset read failed", "root", root.Name, "path", full, "error", err)

			data, err = readBuffered(root.Fs, full)
			if err == nil {
				slog.Debug("Asset resolved via buffered read",
					"logical", logical, "root", root.Name, "path", full, "bytes", len(data))
				return data, nil
			}
			slog.Debug("Buffered asset read failed", "root", root.Name, "path", full, "error", err)
		}
	}
	return nil, &NotFoundError{Logical: logical, Attempted: attempted}
}

// readDirect reads the whole file with a single positional read sized by
// Stat. Stores backed by compressed or non-seekable entries reject ReadAt,
// which is the signal to fall back to readBuffered.
func readDirect(fs afero.Fs, name string) ([]byte, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size < 0 {
		return nil, fmt.Errorf("unknown size for %s", name)
	}
	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

// readBuffered reads the whole file sequentially.
func readBuffered(fs afero.Fs, name string) ([]byte, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}
