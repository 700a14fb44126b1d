package scan

import (
	"regexp"
	"strconv"
	"strings"

	"flowsight/pkg/graph"
	"flowsight/pkg/schema"
)

// tsPatterns is the ordered pattern table for TypeScript/JavaScript
// source. Same precedence as the C# table: database, api, messaging,
// cache, file I/O, transforms, ui.
var tsPatterns = []pattern{
	{
		typ:   graph.DatabaseRead,
		group: "database",
		name:  "Database query",
		desc:  "Reads documents or rows through an ORM/ODM model",
		re:    regexp.MustCompile(`\b(\w+)\.(findOne|findById|findAll|findMany|find|aggregate|countDocuments|count)\s*\(`),
		extract: func(mc *matchCtx, n *graph.WorkflowNode) {
			table := resolveTable(mc, mc.submatch[1])
			n.TableName = table
			n.Name = "Query " + table
		},
	},
	{
		typ:   graph.DatabaseRead,
		group: "database",
		name:  "SQL query",
		desc:  "Executes a SQL query",
		re:    regexp.MustCompile(`knex\(\s*['"](\w+)['"]\)|\.query\(\s*['"` + "`" + `]\s*SELECT\b`),
		extract: func(mc *matchCtx, n *graph.WorkflowNode) {
			token := mc.submatch[1]
			n.TableName = resolveTable(mc, token)
			n.Name = "Query " + n.TableName
		},
	},
	{
		typ:   graph.DatabaseWrite,
		group: "database",
		name:  "Database write",
		desc:  "Creates, updates, or deletes through an ORM/ODM model",
		re:    regexp.MustCompile(`\b(\w+)\.(save|create|insertOne|insertMany|updateOne|updateMany|findByIdAndUpdate|findOneAndUpdate|deleteOne|deleteMany|findByIdAndDelete|bulkWrite|upsert)\s*\(`),
		extract: func(mc *matchCtx, n *graph.WorkflowNode) {
			table := resolveTable(mc, mc.submatch[1])
			n.TableName = table
			n.Name = "Write " + table
		},
	},
	{
		typ:   graph.APICall,
		group: "api",
		name:  "HTTP call",
		desc:  "Performs an outbound HTTP request",
		re:    regexp.MustCompile(`\baxios\.(get|post|put|delete|patch)\s*\(|\bfetch\s*\(|\bhttpClient\.(get|post|put|delete|patch)\s*\(`),
		extract: func(mc *matchCtx, n *graph.WorkflowNode) {
			n.HTTPMethod = tsHTTPMethod(mc)
			if ep := firstStringLiteral(mc.line()); ep != "" {
				n.Endpoint = ep
				n.Name = "HTTP " + n.HTTPMethod + " " + ep
			} else {
				n.Endpoint = graph.UnknownValue
			}
		},
	},
	{
		typ:   graph.MessageSend,
		group: "messages",
		name:  "Message publish",
		desc:  "Publishes a message to a queue or topic",
		re:    regexp.MustCompile(`\bproducer\.send\s*\(|channel\.publish\s*\(|channel\.sendToQueue\s*\(|\.sendMessage\s*\(|pubsub\.publish\s*\(`),
		extract: func(mc *matchCtx, n *graph.WorkflowNode) {
			n.QueueName = queueOrUnknown(mc.line())
		},
	},
	{
		typ:   graph.MessageReceive,
		group: "messages",
		name:  "Message consume",
		desc:  "Consumes messages from a queue or topic",
		re:    regexp.MustCompile(`\bconsumer\.(?:subscribe|run)\s*\(|channel\.consume\s*\(|\.on\(\s*['"]message['"]`),
		extract: func(mc *matchCtx, n *graph.WorkflowNode) {
			n.QueueName = queueOrUnknown(mc.line())
		},
	},
	{
		typ:   graph.CacheRead,
		group: "cache",
		name:  "Cache read",
		desc:  "Reads a value from cache",
		re:    regexp.MustCompile(`\b(?:redis|redisClient|cache)\.(?:get|mget|hget|hgetall)\s*\(`),
	},
	{
		typ:   graph.CacheWrite,
		group: "cache",
		name:  "Cache write",
		desc:  "Stores a value in cache",
		re:    regexp.MustCompile(`\b(?:redis|redisClient|cache)\.(?:set|setex|mset|hset|del)\s*\(`),
	},
	{
		typ:   graph.FileRead,
		group: "file_io",
		name:  "File read",
		desc:  "Reads from the file system",
		re:    regexp.MustCompile(`\bfs\.readFile(?:Sync)?\s*\(|\breadFileSync\s*\(|createReadStream\s*\(`),
	},
	{
		typ:   graph.FileWrite,
		group: "file_io",
		name:  "File write",
		desc:  "Writes to the file system",
		re:    regexp.MustCompile(`\bfs\.writeFile(?:Sync)?\s*\(|\bfs\.appendFile(?:Sync)?\s*\(|createWriteStream\s*\(`),
	},
	{
		typ:   graph.DataTransform,
		group: "transforms",
		name:  "Data transform",
		desc:  "Reshapes data in memory",
		re:    regexp.MustCompile(`\.map\s*\(|\.reduce\s*\(|\.flatMap\s*\(|JSON\.parse\s*\(|JSON\.stringify\s*\(`),
	},
	{
		typ:     graph.UITrigger,
		group:   "ui",
		name:    "UI trigger",
		desc:    "User interaction that starts a workflow",
		re:      regexp.MustCompile(`on(?:Click|Submit|Change)=\{(?:\(\)\s*=>\s*)?(\w+)|addEventListener\(\s*['"](?:click|submit)['"]`),
		extract: extractTSUIHandler,
	},
}

// tsMarkupPatterns covers Angular and Vue template bindings.
var tsMarkupPatterns = []pattern{
	{
		typ:     graph.UITrigger,
		group:   "ui",
		name:    "UI trigger",
		desc:    "User interaction that starts a workflow",
		re:      regexp.MustCompile(`\(click\)="(\w+)|\(submit\)="(\w+)|@click="(\w+)|v-on:click="(\w+)`),
		extract: extractTSUIHandler,
	},
}

// extractTSUIHandler finds the first non-empty capture group, since
// the alternatives each carry their own group.
func extractTSUIHandler(mc *matchCtx, n *graph.WorkflowNode) {
	handler := ""
	for _, g := range mc.submatch[1:] {
		if g != "" {
			handler = g
			break
		}
	}
	if handler == "" {
		n.Name = "UI trigger"
		return
	}
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

func tsHTTPMethod(mc *matchCtx) string {
	for _, g := range mc.submatch[1:] {
		if g != "" {
			return strings.ToUpper(g)
		}
	}
	if strings.Contains(mc.line(), "fetch") {
		if m := fetchMethodRe.FindStringSubmatch(mc.line()); m != nil {
			return strings.ToUpper(strings.Trim(m[1], `'"`))
		}
		return "GET" // fetch defaults to GET
	}
	return graph.UnknownValue
}

// method: 'POST' inside a fetch options object
var fetchMethodRe = regexp.MustCompile(`method:\s*(['"]\w+['"])`)

// TypeScriptScanner detects workflow operations in TypeScript and
// JavaScript source plus Angular/Vue templates.
type TypeScriptScanner struct {
	code   []pattern
	markup []pattern
	loader *CompanionLoader
}

// NewTypeScriptScanner builds the scanner with its category-filtered
// pattern tables.
func NewTypeScriptScanner(opts Options) *TypeScriptScanner {
	return &TypeScriptScanner{
		code:   filterPatterns(tsPatterns, opts.Categories),
		markup: filterPatterns(tsMarkupPatterns, opts.Categories),
		loader: opts.Companions,
	}
}

func (s *TypeScriptScanner) Name() string { return "typescript" }

// AppliesTo accepts TS/JS source and HTML/Vue templates.
func (s *TypeScriptScanner) AppliesTo(path string) bool {
	return hasAnySuffix(path, ".ts", ".tsx", ".js", ".jsx", ".mjs", ".html", ".vue")
}

// Scan emits workflow nodes for one file.
func (s *TypeScriptScanner) Scan(path, content string, reg *schema.Registry) []*graph.WorkflowNode {
	if hasAnySuffix(path, ".html", ".vue") {
		return scanLines(path, content, s.markup, reg, s.loader)
	}
	return scanLines(path, content, s.code, reg, s.loader)
}
