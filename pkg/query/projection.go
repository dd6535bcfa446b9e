// Package query builds PostgreSQL SELECT statements from projections that
// map API field names onto table columns.
package query

import (
	"fmt"
	"strings"
)

type projected struct {
	view string
	expr string
}

// ProjectionMap is the ordered select list of one table and its joins.
// Scan functions rely on that order. View names are the only identifiers
// callers may use for filtering and sorting.
type ProjectionMap struct {
	table  string
	alias  string
	fields []projected
	index  map[string]int
	joins  []string
}

// NewProjectionMap starts a projection over schema.table aliased as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		table: schema + "." + table,
		alias: alias,
		index: make(map[string]int),
	}
}

// Project selects alias.column under viewName.
func (p *ProjectionMap) Project(column, viewName string) *ProjectionMap {
	return p.ProjectExpr(p.alias+"."+column, viewName)
}

// ProjectExpr selects an arbitrary expression, such as a column of a
// joined table, under viewName. Projecting a view name twice panics.
func (p *ProjectionMap) ProjectExpr(expr, viewName string) *ProjectionMap {
	if _, dup := p.index[viewName]; dup {
		panic(fmt.Sprintf("query: %s projected twice on %s", viewName, p.table))
	}
	p.index[viewName] = len(p.fields)
	p.fields = append(p.fields, projected{view: viewName, expr: expr})
	return p
}

// Join appends a join clause such as
// "LEFT JOIN public.prediction_flags f ON f.prediction_id = p.id".
func (p *ProjectionMap) Join(clause string) *ProjectionMap {
	p.joins = append(p.joins, clause)
	return p
}

// Table returns "schema.table alias".
func (p *ProjectionMap) Table() string {
	return p.table + " " + p.alias
}

// From returns Table followed by the join clauses.
func (p *ProjectionMap) From() string {
	return strings.Join(append([]string{p.Table()}, p.joins...), " ")
}

// Lookup returns the expression projected under viewName.
func (p *ProjectionMap) Lookup(viewName string) (string, bool) {
	i, ok := p.index[viewName]
	if !ok {
		return "", false
	}
	return p.fields[i].expr, true
}

// Column is Lookup that falls back to viewName itself, for trusted
// callers naming a raw column.
func (p *ProjectionMap) Column(viewName string) string {
	if expr, ok := p.Lookup(viewName); ok {
		return expr
	}
	return viewName
}

// Columns renders the select list.
func (p *ProjectionMap) Columns() string {
	exprs := make([]string, len(p.fields))
	for i, f := range p.fields {
		exprs[i] = f.expr
	}
	return strings.Join(exprs, ", ")
}

// Fields lists the view names in select order.
func (p *ProjectionMap) Fields() []string {
	names := make([]string, len(p.fields))
	for i, f := range p.fields {
		names[i] = f.view
	}
	return names
}
