package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// SortField is one ORDER BY term. Field is a view name of the projection.
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending,omitempty"`
}

// condition is a WHERE term. Each ? in clause binds the next value of args.
type condition struct {
	clause string
	args   []any
}

// Builder assembles SELECT statements over a ProjectionMap and numbers
// PostgreSQL placeholders in the order conditions were added.
//
// Column expressions registered on the projection must not contain '?'.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	order       []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder ordered by defaultSort unless OrderByFields
// supplies a usable override.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// ParseSortFields reads a comma-separated sort expression such as
// "Prediction,-CreatedAt". A leading "-" sorts descending. Blank terms are
// skipped and an empty expression yields nil.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for term := range strings.SplitSeq(s, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		name, desc := strings.CutPrefix(term, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// Build returns an unbounded SELECT.
func (b *Builder) Build() (string, []any) {
	where, args := b.where()
	return b.selectFrom() + where + b.orderBy(), args
}

// BuildCount returns a COUNT(*) over the same conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.where()
	return "SELECT COUNT(*) FROM " + b.projection.From() + where, args
}

// BuildPage returns one ordered page. page is 1-indexed.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.where()
	offset := (page - 1) * pageSize

	sql := b.selectFrom() + where + b.orderBy() +
		" LIMIT " + strconv.Itoa(pageSize) +
		" OFFSET " + strconv.Itoa(offset)

	return sql, args
}

// BuildSingle selects the row whose idField equals id. Other conditions
// are ignored.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	return b.selectFrom() + " WHERE " + b.projection.Column(idField) + " = $1", []any{id}
}

// OrderByFields replaces the default ordering. Fields the projection does
// not know are dropped so that caller input never reaches the statement;
// if none remain the default ordering is kept.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.order = b.order[:0]
	for _, f := range fields {
		if _, ok := b.projection.Lookup(f.Field); ok {
			b.order = append(b.order, f)
		}
	}
	return b
}

// WhereEquals adds field = value. Nil values are ignored.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	return b.compare(field, "=", value)
}

// WhereMin adds field >= value. Nil values are ignored.
func (b *Builder) WhereMin(field string, value any) *Builder {
	return b.compare(field, ">=", value)
}

// WhereMax adds field <= value. Nil values are ignored.
func (b *Builder) WhereMax(field string, value any) *Builder {
	return b.compare(field, "<=", value)
}

// WhereContains adds a case-insensitive substring match. Nil or empty
// values are ignored.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.add(b.projection.Column(field)+" ILIKE ?", "%"+*value+"%")
}

// WhereSearch matches value as a substring of any of fields.
func (b *Builder) WhereSearch(value *string, fields ...string) *Builder {
	if value == nil || *value == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + *value + "%"
	terms := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, field := range fields {
		terms[i] = b.projection.Column(field) + " ILIKE ?"
		args[i] = pattern
	}

	return b.add("("+strings.Join(terms, " OR ")+")", args...)
}

func (b *Builder) compare(field, op string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.add(b.projection.Column(field)+" "+op+" ?", value)
}

func (b *Builder) add(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

func (b *Builder) selectFrom() string {
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.From()
}

func (b *Builder) where() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var sb strings.Builder
	var args []any

	sb.WriteString(" WHERE ")
	for i, c := range b.conditions {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		parts := strings.Split(c.clause, "?")
		for j, part := range parts {
			sb.WriteString(part)
			if j < len(parts)-1 {
				args = append(args, c.args[j])
				fmt.Fprintf(&sb, "$%d", len(args))
			}
		}
	}

	return sb.String(), args
}

func (b *Builder) orderBy() string {
	fields := b.order
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	terms := make([]string, len(fields))
	for i, f := range fields {
		dir := " ASC"
		if f.Descending {
			dir = " DESC"
		}
		terms[i] = b.projection.Column(f.Field) + dir
	}

	return " ORDER BY " + strings.Join(terms, ", ")
}

// isNil reports whether value is nil or a typed nil pointer, so optional
// filter fields can be passed through unconditionally.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
