package collection

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/supakorn-kn/propadmin/errors"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name can be used as a collection or field name.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// Relation is a many-to-one join: the record of Collection whose id equals the
// local LocalKey field, stored under Alias.
type Relation struct {
	Alias      string
	Collection string
	LocalKey   string
	Fields     []string
}

// AllFields reports whether the relation asks for every field of the joined record.
func (r Relation) AllFields() bool {
	return len(r.Fields) == 1 && r.Fields[0] == "*"
}

func (r Relation) String() string {

	var b strings.Builder
	if r.Alias != r.Collection {
		b.WriteString(r.Alias)
		b.WriteByte(':')
	}

	b.WriteString(r.Collection)
	if r.LocalKey != r.Alias+"_id" {
		b.WriteByte('!')
		b.WriteString(r.LocalKey)
	}

	b.WriteByte('(')
	b.WriteString(strings.Join(r.Fields, ","))
	b.WriteByte(')')

	return b.String()
}

// Projection is the parsed field list of a query.
//
// Grammar, comma separated:
//
//	*                                   every field
//	field                               one top-level field
//	[alias:]collection[!local_key](f,...) a joined record (one level)
type Projection struct {
	All       bool
	Fields    []string
	Relations []Relation
}

// ParseProjection parses a field list. An empty list selects every field.
func ParseProjection(text string) (Projection, error) {

	var p Projection

	items, err := splitTopLevel(text)
	if err != nil {
		return Projection{}, err
	}

	if len(items) == 0 {
		p.All = true
		return p, nil
	}

	seen := map[string]bool{}
	claim := func(name string) error {
		if seen[name] {
			return errors.ProjectionInvalidError.New(fmt.Sprintf("%q appears twice", name))
		}

		seen[name] = true
		return nil
	}

	for _, item := range items {

		switch {
		case item == "*":
			p.All = true

		case strings.Contains(item, "("):
			rel, err := parseRelation(item)
			if err != nil {
				return Projection{}, err
			}

			if err := claim(rel.Alias); err != nil {
				return Projection{}, err
			}

			p.Relations = append(p.Relations, rel)

		case ValidIdentifier(item):
			if err := claim(item); err != nil {
				return Projection{}, err
			}

			p.Fields = append(p.Fields, item)

		default:
			return Projection{}, errors.ProjectionInvalidError.New(fmt.Sprintf("bad field %q", item))
		}
	}

	if p.All {
		p.Fields = nil
	}

	return p, nil
}

// MustParseProjection is ParseProjection for package level declarations.
func MustParseProjection(text string) Projection {

	p, err := ParseProjection(text)
	if err != nil {
		panic(err)
	}

	return p
}

func parseRelation(item string) (Relation, error) {

	open := strings.IndexByte(item, '(')
	if !strings.HasSuffix(item, ")") {
		return Relation{}, errors.ProjectionInvalidError.New(fmt.Sprintf("relation %q is not closed", item))
	}

	head := strings.TrimSpace(item[:open])
	body := item[open+1 : len(item)-1]
	if strings.ContainsAny(body, "()") {
		return Relation{}, errors.ProjectionInvalidError.New(fmt.Sprintf("relation %q nests more than one level", item))
	}

	var rel Relation
	if alias, rest, ok := strings.Cut(head, ":"); ok {
		rel.Alias = strings.TrimSpace(alias)
		head = strings.TrimSpace(rest)
	}

	if name, key, ok := strings.Cut(head, "!"); ok {
		rel.Collection = strings.TrimSpace(name)
		rel.LocalKey = strings.TrimSpace(key)
	} else {
		rel.Collection = head
	}

	if rel.Alias == "" {
		rel.Alias = rel.Collection
	}

	if rel.LocalKey == "" {
		rel.LocalKey = rel.Alias + "_id"
	}

	for _, name := range []string{rel.Alias, rel.Collection, rel.LocalKey} {
		if !ValidIdentifier(name) {
			return Relation{}, errors.ProjectionInvalidError.New(fmt.Sprintf("bad relation %q", item))
		}
	}

	for _, field := range strings.Split(body, ",") {

		field = strings.TrimSpace(field)
		if field != "*" && !ValidIdentifier(field) {
			return Relation{}, errors.ProjectionInvalidError.New(fmt.Sprintf("bad field %q in relation %s", field, rel.Alias))
		}

		rel.Fields = append(rel.Fields, field)
	}

	if slices.Contains(rel.Fields, "*") {
		rel.Fields = []string{"*"}
	}

	return rel, nil
}

func splitTopLevel(text string) ([]string, error) {

	var items []string
	var depth, start int

	flush := func(end int) {
		if item := strings.TrimSpace(text[start:end]); item != "" {
			items = append(items, item)
		}
	}

	for i, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, errors.ProjectionInvalidError.New("unbalanced parentheses")
			}
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}

	if depth != 0 {
		return nil, errors.ProjectionInvalidError.New("unbalanced parentheses")
	}

	flush(len(text))

	return items, nil
}

// Includes reports whether a top-level field is part of the projection.
func (p Projection) Includes(field string) bool {
	return p.All || slices.Contains(p.Fields, field)
}

// String renders the canonical form, used as part of cache keys.
func (p Projection) String() string {

	var parts []string
	if p.All {
		parts = append(parts, "*")
	}

	parts = append(parts, p.Fields...)
	for _, rel := range p.Relations {
		parts = append(parts, rel.String())
	}

	return strings.Join(parts, ",")
}
