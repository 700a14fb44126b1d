// Package locator discovers candidate files for a scan. It walks the
// repository root, prunes excluded directories before descending into
// them, and filters by extension, glob pattern, and file size.
package locator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the ceiling above which files are skipped with
// a warning instead of being scanned. Large generated files dominate
// scan time without contributing workflow nodes.
const DefaultMaxFileSize int64 = 2 << 20 // 2 MiB

// DefaultExcludeDirs are directory names whose subtrees are never
// visited. Pruning happens before descent: an excluded directory is
// skipped wholesale, not filtered file by file afterwards.
var DefaultExcludeDirs = []string{
	"node_modules",
	".git",
	"bin",
	"obj",
	"dist",
	"build",
	"vendor",
	"packages",
	".vs",
	".idea",
	".vscode",
	"__pycache__",
	"target",
}

// File is a discovered candidate file.
type File struct {
	Path     string // relative to root, forward slashes
	FullPath string // absolute
	Size     int64
}

// Warning records a file that was skipped for a non-fatal reason.
type Warning struct {
	Path   string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}

// Options configures file discovery.
type Options struct {
	// IncludeExtensions limits discovery to these extensions
	// (e.g. [".cs", ".ts"]). Empty means all files.
	IncludeExtensions []string

	// ExcludeDirs are directory names pruned before descent.
	// Nil means DefaultExcludeDirs.
	ExcludeDirs []string

	// ExcludePatterns are gitignore-style globs matched against the
	// slash-normalized relative path (e.g. "**/*.generated.cs").
	ExcludePatterns []string

	// MaxFileSize is the per-file byte ceiling. 0 means
	// DefaultMaxFileSize.
	MaxFileSize int64
}

// ValidatePatterns checks every exclude glob for syntax errors. Called
// before any file I/O so a bad pattern fails the run up front.
func (o Options) ValidatePatterns() error {
	for _, p := range o.ExcludePatterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

// Locator discovers files under a root path.
type Locator struct {
	opts       Options
	extSet     map[string]bool
	excludeSet map[string]bool
	maxSize    int64
}

// New creates a Locator. Options are normalized once here, not per
// file.
func New(opts Options) *Locator {
	excludes := opts.ExcludeDirs
	if excludes == nil {
		excludes = DefaultExcludeDirs
	}
	excludeSet := make(map[string]bool, len(excludes))
	for _, d := range excludes {
		excludeSet[strings.ToLower(d)] = true
	}

	extSet := make(map[string]bool, len(opts.IncludeExtensions))
	for _, e := range opts.IncludeExtensions {
		extSet[strings.ToLower(e)] = true
	}

	maxSize := opts.MaxFileSize
	if maxSize == 0 {
		maxSize = DefaultMaxFileSize
	}

	return &Locator{opts: opts, extSet: extSet, excludeSet: excludeSet, maxSize: maxSize}
}

// Walk traverses root and calls fn for each candidate file in stable
// (lexicographic) order. Each call starts a fresh traversal, so the
// sequence is restartable. Skipped files are returned as warnings, not
// errors.
func (l *Locator) Walk(root string, fn func(File) error) ([]Warning, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	var warnings []Warning

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			warnings = append(warnings, Warning{Path: path, Reason: err.Error()})
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		relSlash := filepath.ToSlash(relPath)

		if info.IsDir() {
			if l.excludeSet[strings.ToLower(info.Name())] {
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinked files are skipped: a link can point outside the
		// root and break the stable-order guarantee.
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		if len(l.extSet) > 0 && !l.extSet[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		for _, pattern := range l.opts.ExcludePatterns {
			if ok, _ := doublestar.Match(pattern, relSlash); ok {
				return nil
			}
		}

		if info.Size() > l.maxSize {
			warnings = append(warnings, Warning{
				Path:   relSlash,
				Reason: fmt.Sprintf("file exceeds size ceiling (%d > %d bytes)", info.Size(), l.maxSize),
			})
			return nil
		}

		return fn(File{Path: relSlash, FullPath: path, Size: info.Size()})
	})
	if err != nil {
		return warnings, fmt.Errorf("walking directory: %w", err)
	}

	return warnings, nil
}

// Locate collects every candidate file under root. The result order is
// stable across runs of an unchanged tree.
func (l *Locator) Locate(root string) ([]File, []Warning, error) {
	var files []File
	warnings, err := l.Walk(root, func(f File) error {
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, warnings, err
	}
	// filepath.Walk already yields lexical order; keep the sort as the
	// contract rather than an implementation accident.
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, warnings, nil
}
