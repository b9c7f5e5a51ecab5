package parser

import (
	"regexp"
	"strings"

	"github.com/hokkyo/dsmigrate/internal/entities"
)

// blockState tracks which kind of block the scan is inside
type blockState int

const (
	outsideBlock blockState = iota
	inDatabaseBlock
	inCollectionBlock
)

var (
	databaseRe   = regexp.MustCompile(`^database\b`)
	collectionRe = regexp.MustCompile(`^collection\s+(\w+)`)
	keyValueRe   = regexp.MustCompile(`^(\w+)\s*=\s*"([^"]*)"`)
	attributeRe  = regexp.MustCompile(`^(\w+)\s+(\w+)(\[\])?\s*(.*)$`)
)

// Parser scans schema DSL text line by line. The DSL is permissive by
// design: unrecognized lines are skipped, never reported.
type Parser struct {
	state      blockState
	depth      int
	schema     *entities.Schema
	collection *entities.Collection
	dbFields   map[string]string
}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{
		schema: entities.NewSchema(),
	}
}

// Parse parses schema DSL source text into a schema. It never fails:
// tolerant input produces a schema containing whatever was recognized.
func Parse(source string) *entities.Schema {
	return NewParser().Parse(source)
}

// Parse runs the line state machine over the source text
func (p *Parser) Parse(source string) *entities.Schema {
	for _, rawLine := range strings.Split(source, "\n") {
		line := strings.TrimSpace(rawLine)
		p.scanLine(line)
	}
	// An unclosed block at EOF is still committed; the DSL never errors.
	p.closeBlock()
	return p.schema
}

// scanLine processes one trimmed line and advances the state machine
func (p *Parser) scanLine(line string) {
	switch p.state {
	case outsideBlock:
		switch {
		case databaseRe.MatchString(line):
			p.state = inDatabaseBlock
			p.dbFields = make(map[string]string)
		case collectionRe.MatchString(line):
			name := collectionRe.FindStringSubmatch(line)[1]
			p.state = inCollectionBlock
			p.collection = entities.NewCollection(name)
		}
		if p.trackDepth(line) {
			p.closeBlock()
		}

	case inDatabaseBlock:
		if m := keyValueRe.FindStringSubmatch(line); m != nil {
			p.dbFields[m[1]] = m[2]
		}
		if p.trackDepth(line) {
			p.closeBlock()
		}

	case inCollectionBlock:
		p.scanCollectionLine(line)
		if p.trackDepth(line) {
			p.closeBlock()
		}
	}
}

// trackDepth updates the bracket-depth counter for a line and reports
// whether the depth returned to zero, i.e. the current block ended.
// A block opened and closed on one line counts as ended; a balanced
// inner pair (depth stays above zero) does not.
func (p *Parser) trackDepth(line string) bool {
	p.depth += strings.Count(line, "{")
	p.depth -= strings.Count(line, "}")
	if p.depth < 0 {
		// Unbalanced closing brackets; clamp rather than fail.
		p.depth = 0
	}
	return p.depth == 0 && strings.Contains(line, "}")
}

// closeBlock commits the block under construction, if any
func (p *Parser) closeBlock() {
	switch p.state {
	case inDatabaseBlock:
		db := &entities.Database{
			ID:   p.dbFields["id"],
			Name: p.dbFields["name"],
		}
		if db.ID != "" {
			p.schema.Databases[db.ID] = db
		}
		p.dbFields = nil

	case inCollectionBlock:
		if p.collection != nil {
			p.schema.Collections[p.collection.Name] = p.collection
		}
		p.collection = nil
	}
	p.state = outsideBlock
}

// scanCollectionLine handles one line inside a collection block: either
// an @@index/@@unique declaration or an attribute declaration.
func (p *Parser) scanCollectionLine(line string) {
	if strings.HasPrefix(line, "@@") {
		if index := parseIndexLine(line); index != nil {
			p.collection.Indexes = append(p.collection.Indexes, index)
		}
		return
	}

	m := attributeRe.FindStringSubmatch(line)
	if m == nil {
		return
	}
	attr := &entities.Attribute{
		Key:   m[1],
		Array: m[3] == "[]",
	}
	attr.Type, _ = entities.ParseAttributeType(strings.ToLower(m[2]))
	applyDecorators(attr, m[4])
	p.collection.Attributes[attr.Key] = attr
}

var (
	indexLineRe = regexp.MustCompile(`^@@(index|unique)\s*\(\s*\[([^\]]*)\](?:\s*,\s*([^)]*))?\)`)
)

// parseIndexLine parses an @@index([...]) or @@unique([...]) line.
// Tokens equal to asc/desc set the order of the preceding field rather
// than naming a field. @@index accepts an optional second argument: an
// asc/desc token sets the first field's order, anything else is the
// explicit index type.
func parseIndexLine(line string) *entities.Index {
	m := indexLineRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	index := &entities.Index{Type: entities.IndexKey}
	if m[1] == "unique" {
		index.Type = entities.IndexUnique
	}

	for _, token := range strings.Split(m[2], ",") {
		token = strings.Trim(strings.TrimSpace(token), `"'`)
		if token == "" {
			continue
		}
		if order, ok := parseOrder(token); ok {
			// Direction token: binds to the field before it.
			if n := len(index.Fields); n > 0 {
				index.Orders[n-1] = order
			}
			continue
		}
		index.Fields = append(index.Fields, token)
		index.Orders = append(index.Orders, "")
	}
	if len(index.Fields) == 0 {
		return nil
	}

	if m[1] == "index" {
		extra := strings.Trim(strings.TrimSpace(m[3]), `"'`)
		if extra != "" {
			if order, ok := parseOrder(extra); ok {
				index.Orders[0] = order
			} else {
				// Unknown types pass through verbatim for the remote
				// service to accept or reject.
				index.Type = entities.IndexType(strings.ToLower(extra))
			}
		}
	}
	return index
}

func parseOrder(token string) (entities.Order, bool) {
	switch strings.ToLower(token) {
	case "asc":
		return entities.OrderAsc, true
	case "desc":
		return entities.OrderDesc, true
	}
	return "", false
}
