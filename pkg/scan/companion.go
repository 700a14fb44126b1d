package scan

import (
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CompanionLoader resolves a UI markup file to its behavior/controller
// counterpart (X.razor → X.razor.cs, X.component.html →
// X.component.ts) and locates handler definitions inside it. This is
// the only place a scanner reads a second file during the per-file
// pass, so contents are cached: hot component pairs are hit once per
// handler, not once per binding.
type CompanionLoader struct {
	root  string
	cache *lru.Cache[string, string]
}

// NewCompanionLoader creates a loader with a bounded content cache.
// Scanner paths are relative to root; pass "" when they are already
// absolute or relative to the working directory.
func NewCompanionLoader(root string) *CompanionLoader {
	cache, err := lru.New[string, string](256)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(err)
	}
	return &CompanionLoader{root: root, cache: cache}
}

// companionCandidates lists the counterpart paths for a markup file,
// most specific first.
func companionCandidates(path string) []string {
	switch {
	case strings.HasSuffix(path, ".razor"):
		return []string{path + ".cs"}
	case strings.HasSuffix(path, ".xaml"):
		return []string{path + ".cs"}
	case strings.HasSuffix(path, ".cshtml"):
		return []string{path + ".cs"}
	case strings.HasSuffix(path, ".component.html"):
		base := strings.TrimSuffix(path, ".html")
		return []string{base + ".ts"}
	case strings.HasSuffix(path, ".html"):
		base := strings.TrimSuffix(path, ".html")
		return []string{base + ".ts", base + ".js"}
	}
	return nil
}

// load reads a companion file through the cache. A missing or
// unreadable companion is a cache-negative, not an error: the UI node
// is still emitted without handler metadata.
func (l *CompanionLoader) load(path string) (string, bool) {
	if content, ok := l.cache.Get(path); ok {
		return content, content != ""
	}
	full := path
	if l.root != "" && !filepath.IsAbs(path) {
		full = filepath.Join(l.root, path)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		l.cache.Add(path, "")
		return "", false
	}
	content := string(data)
	l.cache.Add(path, content)
	return content, true
}

// FindHandler looks for the named handler in the markup file's
// companion. It returns the companion path and the 1-based line of the
// handler definition, or ("", 0) when unresolved.
func (l *CompanionLoader) FindHandler(markupPath, handler string) (string, int) {
	if handler == "" {
		return "", 0
	}
	for _, candidate := range companionCandidates(markupPath) {
		content, ok := l.load(candidate)
		if !ok {
			continue
		}
		for i, line := range strings.Split(content, "\n") {
			if definesHandler(line, handler) {
				return candidate, i + 1
			}
		}
	}
	return "", 0
}

// definesHandler reports whether the line defines the named handler.
// Definitions look like "void OnSave(" in C# or "onSave(...)" /
// "onSave = (" in TypeScript. A plain substring check plus a
// following-character test avoids compiling a regexp per binding.
func definesHandler(line, handler string) bool {
	idx := strings.Index(line, handler)
	if idx < 0 {
		return false
	}
	if idx > 0 {
		prev := line[idx-1]
		if prev == '.' || prev == '"' || prev == '\'' {
			return false // a call site or binding, not a definition
		}
	}
	rest := strings.TrimLeft(line[idx+len(handler):], " \t")
	return strings.HasPrefix(rest, "(") || strings.HasPrefix(rest, "=")
}
