// Package schema implements the first scan pass: it extracts
// entity/table declarations from candidate files into an immutable
// registry that the second pass uses to resolve bare collection
// references (for example an ORM property access) to canonical table
// names.
package schema

import (
	"regexp"
	"strings"
)

// TableSchema is one registry entry. Entries are created during the
// first pass and never mutated afterwards.
type TableSchema struct {
	EntityName      string            `json:"entity_name"`
	TableName       string            `json:"table_name"`
	FilePath        string            `json:"file_path"`
	LineNumber      int               `json:"line_number"`
	Properties      []string          `json:"properties,omitempty"`
	CollectionAlias string            `json:"collection_alias,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// Registry is the frozen alias → schema lookup table. It is built once
// per scan, then shared read-only across parallel scanner workers; no
// locking is needed after Freeze.
type Registry struct {
	byAlias  map[string]*TableSchema
	byEntity map[string]*TableSchema
	entries  []*TableSchema
}

// Resolve looks up a bare token, trying collection aliases first and
// entity names second.
func (r *Registry) Resolve(token string) (*TableSchema, bool) {
	if s, ok := r.byAlias[token]; ok {
		return s, true
	}
	if s, ok := r.byEntity[token]; ok {
		return s, true
	}
	return nil, false
}

// Entries returns all registry entries in discovery order.
func (r *Registry) Entries() []*TableSchema {
	return r.entries
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Patterns are compiled once at package load, not per file or per
// line.
var (
	// [Table("users")] is an explicit table mapping, wins over everything.
	csTableAttr = regexp.MustCompile(`\[Table\(\s*"([^"]+)"`)
	// public class User / public partial class User
	csClassDecl = regexp.MustCompile(`\bclass\s+([A-Z]\w*)`)
	// public DbSet<User> Users { get; set; }
	csDbSet = regexp.MustCompile(`\bDbSet<(\w+)>\s+(\w+)`)
	// public string Name { get; set; }
	csAutoProp = regexp.MustCompile(`public\s+[\w<>?,\s\[\]]+\s+(\w+)\s*\{\s*get;`)

	// mongoose.model('User', userSchema) or ('User', schema, 'users')
	tsMongooseModel = regexp.MustCompile(`mongoose\.model\(\s*['"](\w+)['"]\s*(?:,[^,)]+)?(?:,\s*['"](\w+)['"])?`)
	// @Entity('users') or @Entity()
	tsEntityDecor = regexp.MustCompile(`@Entity\(\s*(?:['"]([^'"]+)['"])?\s*\)`)
	// export class User / class User
	tsClassDecl = regexp.MustCompile(`\bclass\s+([A-Z]\w*)`)
	// sequelize.define('User', {...})
	tsSequelizeDefine = regexp.MustCompile(`\.define\(\s*['"](\w+)['"]`)

	// Heuristic fallback: class names carrying an entity-ish suffix.
	entitySuffixes = []string{"Entity", "Model", "Record", "Document"}
)

// Builder accumulates declarations across the first pass. Collisions
// (two declarations claiming one alias) resolve first-match-wins and
// are recorded, not fatal.
type Builder struct {
	byAlias  map[string]*TableSchema
	byEntity map[string]*TableSchema
	entries  []*TableSchema
	warnings []string
}

// NewBuilder creates an empty registry builder.
func NewBuilder() *Builder {
	return &Builder{
		byAlias:  make(map[string]*TableSchema),
		byEntity: make(map[string]*TableSchema),
	}
}

// Warnings returns recorded collision warnings.
func (b *Builder) Warnings() []string {
	return b.warnings
}

// LikelyDeclares is the cheap pre-filter: only files that can possibly
// contain a declaration get the full regex pass.
func LikelyDeclares(content string) bool {
	return strings.Contains(content, "DbSet<") ||
		strings.Contains(content, "[Table(") ||
		strings.Contains(content, "mongoose.model") ||
		strings.Contains(content, "@Entity") ||
		strings.Contains(content, ".define(") ||
		containsEntitySuffix(content)
}

func containsEntitySuffix(content string) bool {
	for _, suffix := range entitySuffixes {
		if strings.Contains(content, suffix) {
			return true
		}
	}
	return false
}

// AddFile extracts declarations from one file. Explicit declarations
// (DbSet, @Entity, mongoose.model, sequelize.define, [Table]) are
// registered before the class-name heuristic, so an explicit entry
// always wins a collision with a heuristic one.
func (b *Builder) AddFile(path string, content string) {
	lines := strings.Split(content, "\n")

	switch {
	case strings.HasSuffix(path, ".cs"):
		b.extractCSharp(path, lines)
	case hasAnySuffix(path, ".ts", ".tsx", ".js", ".jsx", ".mjs"):
		b.extractTypeScript(path, lines)
	}

	b.extractHeuristicClasses(path, lines)
}

// extractCSharp handles Entity Framework style declarations.
func (b *Builder) extractCSharp(path string, lines []string) {
	pendingTable := "" // set by a [Table("...")] attribute line
	for i, line := range lines {
		if m := csTableAttr.FindStringSubmatch(line); m != nil {
			pendingTable = m[1]
			continue
		}
		if pendingTable != "" {
			if m := csClassDecl.FindStringSubmatch(line); m != nil {
				entity := m[1]
				b.register(&TableSchema{
					EntityName: entity,
					TableName:  pendingTable,
					FilePath:   path,
					LineNumber: i + 1,
					Properties: collectAutoProps(lines, i+1),
					Metadata:   map[string]string{"strategy": "table_attribute"},
				})
				pendingTable = ""
				continue
			}
		}
		if m := csDbSet.FindStringSubmatch(line); m != nil {
			entity, alias := m[1], m[2]
			b.register(&TableSchema{
				EntityName:      entity,
				TableName:       entity,
				FilePath:        path,
				LineNumber:      i + 1,
				CollectionAlias: alias,
				Metadata:        map[string]string{"strategy": "dbset"},
			})
		}
	}
}

// extractTypeScript handles mongoose, TypeORM, and sequelize
// declarations.
func (b *Builder) extractTypeScript(path string, lines []string) {
	pendingTable := ""
	pendingDecorator := false
	for i, line := range lines {
		if m := tsEntityDecor.FindStringSubmatch(line); m != nil {
			pendingTable = m[1]
			pendingDecorator = true
			// @Entity may share a line with the class declaration.
			if cm := tsClassDecl.FindStringSubmatch(line); cm != nil {
				b.registerEntityClass(path, i+1, cm[1], pendingTable)
				pendingTable, pendingDecorator = "", false
			}
			continue
		}
		if pendingDecorator {
			if m := tsClassDecl.FindStringSubmatch(line); m != nil {
				b.registerEntityClass(path, i+1, m[1], pendingTable)
			}
			pendingTable, pendingDecorator = "", false
			continue
		}
		if m := tsMongooseModel.FindStringSubmatch(line); m != nil {
			entity := m[1]
			table := m[2]
			if table == "" {
				table = entity
			}
			b.register(&TableSchema{
				EntityName:      entity,
				TableName:       table,
				FilePath:        path,
				LineNumber:      i + 1,
				CollectionAlias: entity,
				Metadata:        map[string]string{"strategy": "mongoose_model"},
			})
			continue
		}
		if m := tsSequelizeDefine.FindStringSubmatch(line); m != nil {
			b.register(&TableSchema{
				EntityName:      m[1],
				TableName:       m[1],
				FilePath:        path,
				LineNumber:      i + 1,
				CollectionAlias: m[1],
				Metadata:        map[string]string{"strategy": "sequelize_define"},
			})
		}
	}
}

func (b *Builder) registerEntityClass(path string, line int, entity, table string) {
	if table == "" {
		table = entity
	}
	b.register(&TableSchema{
		EntityName: entity,
		TableName:  table,
		FilePath:   path,
		LineNumber: line,
		Metadata:   map[string]string{"strategy": "entity_decorator"},
	})
}

// extractHeuristicClasses registers classes named like entities
// (UserModel, OrderEntity). This runs last: an explicit declaration
// for the same name has already claimed the slot.
func (b *Builder) extractHeuristicClasses(path string, lines []string) {
	for i, line := range lines {
		m := csClassDecl.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[1]
		for _, suffix := range entitySuffixes {
			base := strings.TrimSuffix(name, suffix)
			if base != name && base != "" {
				b.register(&TableSchema{
					EntityName: base,
					TableName:  base,
					FilePath:   path,
					LineNumber: i + 1,
					Metadata:   map[string]string{"strategy": "class_name_heuristic"},
				})
				break
			}
		}
	}
}

// register applies first-match-wins on both alias and entity keys.
func (b *Builder) register(s *TableSchema) {
	collided := false
	if s.CollectionAlias != "" {
		if prev, exists := b.byAlias[s.CollectionAlias]; exists {
			b.warnings = append(b.warnings,
				"registry collision: alias "+s.CollectionAlias+" declared in "+s.FilePath+" already claimed by "+prev.FilePath)
			collided = true
		} else {
			b.byAlias[s.CollectionAlias] = s
		}
	}
	if _, exists := b.byEntity[s.EntityName]; !exists {
		b.byEntity[s.EntityName] = s
	} else if s.CollectionAlias == "" {
		collided = true
	}
	if !collided {
		b.entries = append(b.entries, s)
	}
}

// Freeze returns the immutable registry. The builder must not be used
// afterwards.
func (b *Builder) Freeze() *Registry {
	return &Registry{byAlias: b.byAlias, byEntity: b.byEntity, entries: b.entries}
}

// collectAutoProps scans a bounded window after a class declaration
// for C# auto-properties.
func collectAutoProps(lines []string, start int) []string {
	var props []string
	end := start + 30
	if end > len(lines) {
		end = len(lines)
	}
	for _, line := range lines[start:end] {
		if m := csAutoProp.FindStringSubmatch(line); m != nil {
			props = append(props, m[1])
		}
	}
	return props
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
