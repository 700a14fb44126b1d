// Package scan implements the per-language second pass. Each scanner
// reads a file once and emits workflow nodes by matching an ordered,
// pre-compiled pattern table against every line. Contextual fields
// (table name, endpoint, queue) are resolved through a strategy chain
// that degrades to a sentinel instead of failing the scan.
package scan

import (
	"regexp"
	"strings"

	"flowsight/pkg/graph"
	"flowsight/pkg/schema"
)

// Categories toggles which detector groups run. Disabled groups are
// removed from the pattern table at scanner construction, not checked
// per line.
type Categories struct {
	Database   bool
	API        bool
	FileIO     bool
	Messages   bool
	Transforms bool
	Cache      bool
	UITriggers bool
}

// AllCategories enables every detector group.
func AllCategories() Categories {
	return Categories{
		Database:   true,
		API:        true,
		FileIO:     true,
		Messages:   true,
		Transforms: true,
		Cache:      true,
		UITriggers: true,
	}
}

func (c Categories) enabled(group string) bool {
	switch group {
	case "database":
		return c.Database
	case "api":
		return c.API
	case "file_io":
		return c.FileIO
	case "messages":
		return c.Messages
	case "transforms":
		return c.Transforms
	case "cache":
		return c.Cache
	case "ui":
		return c.UITriggers
	}
	return false
}

// Scanner is the capability set every language scanner implements.
// Scanners are resolved once when the scanner set is constructed, not
// re-discovered per file.
type Scanner interface {
	Name() string
	AppliesTo(path string) bool
	Scan(path string, content string, reg *schema.Registry) []*graph.WorkflowNode
}

// Options configures scanner construction.
type Options struct {
	Categories Categories
	// Companions resolves UI markup files to their behavior/controller
	// counterparts. Shared across scanners so file contents are loaded
	// once.
	Companions *CompanionLoader
}

// Scanners builds the full scanner set for the given options.
func Scanners(opts Options) []Scanner {
	if opts.Companions == nil {
		opts.Companions = NewCompanionLoader("")
	}
	return []Scanner{
		NewCSharpScanner(opts),
		NewTypeScriptScanner(opts),
	}
}

// matchCtx carries everything a field extractor may need for one match.
type matchCtx struct {
	path      string
	lines     []string
	idx       int // 0-based line index of the match
	submatch  []string
	registry  *schema.Registry
	companion *CompanionLoader
}

// line returns the matched line.
func (mc *matchCtx) line() string {
	return mc.lines[mc.idx]
}

// pattern is one entry of a scanner's ordered table. Within a line the
// first matching pattern wins and later entries are not tried; the
// table order is therefore the documented category precedence
// (database, api, messaging, cache, file I/O, transforms, ui).
type pattern struct {
	typ     graph.NodeType
	group   string
	name    string
	desc    string
	re      *regexp.Regexp
	extract func(mc *matchCtx, n *graph.WorkflowNode)
}

// scanLines runs the pattern table over every line of content. Pattern
// regexps are compiled at package load; nothing is recompiled per line
// or per file.
func scanLines(path, content string, patterns []pattern, reg *schema.Registry, companion *CompanionLoader) []*graph.WorkflowNode {
	lines := strings.Split(content, "\n")
	var nodes []*graph.WorkflowNode

	for i, line := range lines {
		for pi := range patterns {
			p := &patterns[pi]
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			n := &graph.WorkflowNode{
				ID:          graph.NodeID(path, p.typ, i+1),
				Type:        p.typ,
				Name:        p.name,
				Description: p.desc,
				Location:    graph.CodeLocation{FilePath: path, LineNumber: i + 1},
				CodeSnippet: snippet(line),
			}
			if p.extract != nil {
				mc := &matchCtx{
					path:      path,
					lines:     lines,
					idx:       i,
					submatch:  m,
					registry:  reg,
					companion: companion,
				}
				p.extract(mc, n)
			}
			nodes = append(nodes, n)
			break // first-match-wins per line
		}
	}
	return nodes
}

// filterPatterns drops table entries for disabled category groups.
func filterPatterns(all []pattern, cats Categories) []pattern {
	out := make([]pattern, 0, len(all))
	for _, p := range all {
		if cats.enabled(p.group) {
			out = append(out, p)
		}
	}
	return out
}

// snippet trims and caps a matched line for the node record.
func snippet(line string) string {
	s := strings.TrimSpace(line)
	if len(s) > 160 {
		s = s[:160]
	}
	return s
}

// resolveTable resolves a table name for a bare collection token using
// the strategy chain: registry lookup, bounded backward scan for a
// nearby declaration, then the sentinel. Extraction never fails the
// scan.
func resolveTable(mc *matchCtx, token string) string {
	// Strategy 1: qualified reference through the frozen registry.
	if mc.registry != nil {
		if s, ok := mc.registry.Resolve(token); ok {
			return s.TableName
		}
	}

	// Strategy 2: declaration within a bounded backward window.
	if table := backwardDeclaration(mc.lines, mc.idx, token); table != "" {
		return table
	}

	// Strategy 3: the token itself, when it looks like an identifier.
	// A structural match already narrowed it to a collection position.
	if token != "" && identRe.MatchString(token) {
		return token
	}

	return graph.UnknownValue
}

const backwardWindow = 10

var (
	identRe = regexp.MustCompile(`^[A-Za-z_]\w*$`)
	// var users = context.Users / const User = require('./user')
	declRe = regexp.MustCompile(`(?:var|let|const)\s+(\w+)\s*=.*?\b([A-Z]\w*)\b`)
	// FROM users / INTO users in inline SQL
	sqlTableRe = regexp.MustCompile(`(?i)\b(?:FROM|INTO|UPDATE|JOIN)\s+\[?(\w+)\]?`)
)

// backwardDeclaration scans up to backwardWindow lines above the match
// for a declaration binding the token to a registry entity or an
// inline SQL table reference.
func backwardDeclaration(lines []string, idx int, token string) string {
	start := idx - backwardWindow
	if start < 0 {
		start = 0
	}
	for i := idx; i >= start; i-- {
		line := lines[i]
		if token != "" {
			if m := declRe.FindStringSubmatch(line); m != nil && m[1] == token {
				return m[2]
			}
		}
		if m := sqlTableRe.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// firstStringLiteral pulls the first quoted literal out of a line
// fragment, used for endpoints and queue names.
var stringLitRe = regexp.MustCompile(`['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`)

func firstStringLiteral(s string) string {
	if m := stringLitRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}
