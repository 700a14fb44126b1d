package scan

import (
	"regexp"
	"strconv"
	"strings"

	"flowsight/pkg/graph"
	"flowsight/pkg/schema"
)

// csPatterns is the ordered pattern table for C# source. Order is the
// category precedence: a line matching both a database and a transform
// pattern is a database node.
var csPatterns = []pattern{
	{
		typ:   graph.DatabaseRead,
		group: "database",
		name:  "Database query",
		desc:  "Reads records through an Entity Framework context",
		re:    regexp.MustCompile(`\b\w*[Cc]ontext\.(\w+)\.(Where|First|FirstOrDefault|FirstOrDefaultAsync|Single|SingleOrDefault|Find|FindAsync|ToList|ToListAsync|Any|AnyAsync|Count|CountAsync|Include|AsNoTracking)\b`),
		extract: func(mc *matchCtx, n *graph.WorkflowNode) {
			table := resolveTable(mc, mc.submatch[1])
			n.TableName = table
			n.Name = "Query " + table
		},
	},
	{
		typ:   graph.DatabaseRead,
		group: "database",
		name:  "Raw SQL query",
		desc:  "Executes a raw SQL SELECT",
		re:    regexp.MustCompile(`FromSqlRaw\(|FromSqlInterpolated\(|ExecuteReader(?:Async)?\(`),
		extract: func(mc *matchCtx, n *graph.WorkflowNode) {
			n.TableName = resolveTable(mc, "")
		},
	},
	{
		typ:   graph.DatabaseWrite,
		group: "database",
		name:  "Database write",
		desc:  "Adds, updates, or removes entities through a context",
		re:    regexp.MustCompile(`\b\w*[Cc]ontext\.(\w+)\.(Add|AddAsync|AddRange|AddRangeAsync|Update|UpdateRange|Remove|RemoveRange)\b`),
		extract: func(mc *matchCtx, n *graph.WorkflowNode) {
			table := resolveTable(mc, mc.submatch[1])
			n.TableName = table
			n.Name = "Write " + table
		},
	},
	{
		typ:   graph.DatabaseWrite,
		group: "database",
		name:  "Save changes",
		desc:  "Commits pending entity changes",
		re:    regexp.MustCompile(`\bSaveChanges(?:Async)?\(|ExecuteNonQuery(?:Async)?\(`),
		extract: func(mc *matchCtx, n *graph.WorkflowNode) {
			n.TableName = resolveTable(mc, "")
		},
	},
	{
		typ:   graph.APICall,
		group: "api",
		name:  "HTTP call",
		desc:  "Performs an outbound HTTP request",
		re:    regexp.MustCompile(`\.(GetAsync|GetStringAsync|GetFromJsonAsync|PostAsync|PostAsJsonAsync|PutAsync|PutAsJsonAsync|DeleteAsync|PatchAsync|SendAsync)(?:<[^>]*>)?\s*\(`),
		extract: func(mc *matchCtx, n *graph.WorkflowNode) {
			n.HTTPMethod = csHTTPMethod(mc.submatch[1])
			if ep := firstStringLiteral(mc.line()); ep != "" {
				n.Endpoint = ep
				n.Name = "HTTP " + n.HTTPMethod + " " + ep
			} else {
				n.Endpoint = graph.UnknownValue
			}
		},
	},
	{
		typ:   graph.APICall,
		group: "api",
		name:  "API endpoint",
		desc:  "Declares an HTTP endpoint route",
		re:    regexp.MustCompile(`\[Http(Get|Post|Put|Delete|Patch)(?:\("([^"]*)"\))?\]`),
		extract: func(mc *matchCtx, n *graph.WorkflowNode) {
			n.HTTPMethod = strings.ToUpper(mc.submatch[1])
			n.Endpoint = mc.submatch[2]
			if n.Endpoint == "" {
				n.Endpoint = graph.UnknownValue
			}
			n.Name = "Endpoint " + n.HTTPMethod + " " + n.Endpoint
			n.Metadata = map[string]string{"direction": "inbound"}
		},
	},
	{
		typ:   graph.MessageSend,
		group: "messages",
		name:  "Message publish",
		desc:  "Publishes a message to a queue or topic",
		re:    regexp.MustCompile(`\b(?:bus|_bus|publisher|_publisher|producer|endpoint)\.(?:Publish|PublishAsync|Send|SendAsync)\(|BasicPublish\(|SendMessageAsync\(`),
		extract: func(mc *matchCtx, n *graph.WorkflowNode) {
			n.QueueName = queueOrUnknown(mc.line())
		},
	},
	{
		typ:   graph.MessageReceive,
		group: "messages",
		name:  "Message consume",
		desc:  "Consumes messages from a queue or topic",
		re:    regexp.MustCompile(`\bBasicConsume\(|AddConsumer<|\.Subscribe(?:Async)?\(|ReceiveMessageAsync\(`),
		extract: func(mc *matchCtx, n *graph.WorkflowNode) {
			n.QueueName = queueOrUnknown(mc.line())
		},
	},
	{
		typ:   graph.CacheRead,
		group: "cache",
		name:  "Cache read",
		desc:  "Reads a value from cache",
		re:    regexp.MustCompile(`\b\w*[Cc]ache\.(?:Get|GetAsync|GetString|GetStringAsync|TryGetValue|GetOrCreate|GetOrCreateAsync)\(`),
	},
	{
		typ:   graph.CacheWrite,
		group: "cache",
		name:  "Cache write",
		desc:  "Stores a value in cache",
		re:    regexp.MustCompile(`\b\w*[Cc]ache\.(?:Set|SetAsync|SetString|SetStringAsync|Remove|RemoveAsync)\(`),
	},
	{
		typ:   graph.FileRead,
		group: "file_io",
		name:  "File read",
		desc:  "Reads from the file system",
		re:    regexp.MustCompile(`\bFile\.(?:ReadAllText|ReadAllTextAsync|ReadAllLines|ReadAllLinesAsync|ReadAllBytes|OpenRead|OpenText)\(|new StreamReader\(`),
	},
	{
		typ:   graph.FileWrite,
		group: "file_io",
		name:  "File write",
		desc:  "Writes to the file system",
		re:    regexp.MustCompile(`\bFile\.(?:WriteAllText|WriteAllTextAsync|WriteAllLines|WriteAllBytes|AppendAllText|AppendAllTextAsync|OpenWrite|Create)\(|new StreamWriter\(`),
	},
	{
		typ:   graph.DataTransform,
		group: "transforms",
		name:  "Data transform",
		desc:  "Projects or reshapes data in memory",
		re:    regexp.MustCompile(`\.Select\(|\.SelectMany\(|\.GroupBy\(|\.Aggregate\(|mapper\.Map<|\.ProjectTo<`),
	},
}

// csMarkupPatterns is the pattern table for C# UI markup (Razor,
// XAML). Trigger nodes resolve their handler through the companion
// file when one exists.
var csMarkupPatterns = []pattern{
	{
		typ:     graph.UITrigger,
		group:   "ui",
		name:    "UI trigger",
		desc:    "User interaction that starts a workflow",
		re:      regexp.MustCompile(`@on(?:click|submit|change)="(\w+)"`),
		extract: extractUIHandler,
	},
	{
		typ:     graph.UITrigger,
		group:   "ui",
		name:    "UI trigger",
		desc:    "User interaction that starts a workflow",
		re:      regexp.MustCompile(`\b(?:Click|Tapped|SelectionChanged)="(\w+)"`),
		extract: extractUIHandler,
	},
	{
		typ:     graph.UITrigger,
		group:   "ui",
		name:    "UI trigger",
		desc:    "Form submission target",
		re:      regexp.MustCompile(`asp-action="(\w+)"`),
		extract: extractUIHandler,
	},
}

// extractUIHandler records the bound handler and, when the companion
// file defines it, where it lives.
func extractUIHandler(mc *matchCtx, n *graph.WorkflowNode) {
	handler := mc.submatch[1]
	n.Name = "Trigger " + handler
	n.Metadata = map[string]string{"handler": handler}
	if mc.companion == nil {
		return
	}
	if file, line := mc.companion.FindHandler(mc.path, handler); file != "" {
		n.Metadata["handler_file"] = file
		n.Metadata["handler_line"] = strconv.Itoa(line)
	}
}

func csHTTPMethod(call string) string {
	switch {
	case strings.HasPrefix(call, "Get"):
		return "GET"
	case strings.HasPrefix(call, "Post"):
		return "POST"
	case strings.HasPrefix(call, "Put"):
		return "PUT"
	case strings.HasPrefix(call, "Delete"):
		return "DELETE"
	case strings.HasPrefix(call, "Patch"):
		return "PATCH"
	default:
		return graph.UnknownValue
	}
}

func queueOrUnknown(line string) string {
	if q := firstStringLiteral(line); q != "" {
		return q
	}
	return graph.UnknownValue
}

// CSharpScanner detects workflow operations in C# source and companion
// UI markup (Razor, cshtml, XAML).
type CSharpScanner struct {
	code   []pattern
	markup []pattern
	loader *CompanionLoader
}

// NewCSharpScanner builds the scanner with its category-filtered
// pattern tables.
func NewCSharpScanner(opts Options) *CSharpScanner {
	return &CSharpScanner{
		code:   filterPatterns(csPatterns, opts.Categories),
		markup: filterPatterns(csMarkupPatterns, opts.Categories),
		loader: opts.Companions,
	}
}

func (s *CSharpScanner) Name() string { return "csharp" }

// AppliesTo accepts C# source and its UI markup dialects.
func (s *CSharpScanner) AppliesTo(path string) bool {
	return hasAnySuffix(path, ".cs", ".razor", ".cshtml", ".xaml")
}

// Scan emits workflow nodes for one file.
func (s *CSharpScanner) Scan(path, content string, reg *schema.Registry) []*graph.WorkflowNode {
	if hasAnySuffix(path, ".razor", ".cshtml", ".xaml") {
		return scanLines(path, content, s.markup, reg, s.loader)
	}
	return scanLines(path, content, s.code, reg, s.loader)
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
