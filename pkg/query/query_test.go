package query_test

import (
	"slices"
	"testing"
	"time"

	"github.com/JaimeStill/jobcheck/pkg/query"
)

const columns = "p.id, p.prediction, p.created_at"

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "predictions", "p").
		Project("id", "ID").
		Project("prediction", "Prediction").
		Project("created_at", "CreatedAt")
}

func joinedProjection() *query.ProjectionMap {
	return testProjection().
		ProjectExpr("(f.id IS NOT NULL)", "Flagged").
		Join("LEFT JOIN public.prediction_flags f ON f.prediction_id = p.id")
}

func ptr(s string) *string { return &s }

func TestProjectionMap(t *testing.T) {
	p := testProjection()

	if got := p.Table(); got != "public.predictions p" {
		t.Errorf("Table() = %q", got)
	}
	if got := p.Columns(); got != columns {
		t.Errorf("Columns() = %q", got)
	}
	if got := p.From(); got != p.Table() {
		t.Errorf("From() without joins = %q", got)
	}

	want := []string{"ID", "Prediction", "CreatedAt"}
	if got := p.Fields(); !slices.Equal(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}

	tests := []struct {
		viewName string
		want     string
	}{
		{"Prediction", "p.prediction"},
		{"CreatedAt", "p.created_at"},
		{"unknown", "unknown"},
	}

	for _, tt := range tests {
		if got := p.Column(tt.viewName); got != tt.want {
			t.Errorf("Column(%q) = %q, want %q", tt.viewName, got, tt.want)
		}
	}

	if _, ok := p.Lookup("unknown"); ok {
		t.Error("Lookup(unknown) reported a mapping")
	}
}

func TestProjectDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("projecting a view name twice should panic")
		}
	}()
	testProjection().Project("label", "Prediction")
}

func TestProjectionMapJoin(t *testing.T) {
	p := joinedProjection()

	wantFrom := "public.predictions p LEFT JOIN public.prediction_flags f ON f.prediction_id = p.id"
	if got := p.From(); got != wantFrom {
		t.Errorf("From() = %q, want %q", got, wantFrom)
	}
	if got := p.Column("Flagged"); got != "(f.id IS NOT NULL)" {
		t.Errorf("Column(Flagged) = %q", got)
	}
	if got := p.Columns(); got != columns+", (f.id IS NOT NULL)" {
		t.Errorf("Columns() = %q", got)
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty", "", nil},
		{"ascending", "Prediction", []query.SortField{{Field: "Prediction"}}},
		{"descending", "-CreatedAt", []query.SortField{{Field: "CreatedAt", Descending: true}}},
		{
			"mixed with spaces and blanks",
			" Prediction ,, -CreatedAt ",
			[]query.SortField{{Field: "Prediction"}, {Field: "CreatedAt", Descending: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if tt.want == nil && got != nil {
				t.Fatalf("ParseSortFields(%q) = %v, want nil", tt.input, got)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseSortFields(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	newest := query.SortField{Field: "CreatedAt", Descending: true}
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.AddDate(0, 1, 0)

	tests := []struct {
		name     string
		build    func() (string, []any)
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "select",
			build:   query.NewBuilder(testProjection()).Build,
			wantSQL: "SELECT " + columns + " FROM public.predictions p",
		},
		{
			name:    "count",
			build:   query.NewBuilder(testProjection()).BuildCount,
			wantSQL: "SELECT COUNT(*) FROM public.predictions p",
		},
		{
			name: "page with default sort",
			build: func() (string, []any) {
				return query.NewBuilder(testProjection(), newest).BuildPage(2, 10)
			},
			wantSQL: "SELECT " + columns + " FROM public.predictions p ORDER BY p.created_at DESC LIMIT 10 OFFSET 10",
		},
		{
			name: "single",
			build: func() (string, []any) {
				return query.NewBuilder(testProjection()).BuildSingle("ID", "abc-123")
			},
			wantSQL:  "SELECT " + columns + " FROM public.predictions p WHERE p.id = $1",
			wantArgs: []any{"abc-123"},
		},
		{
			name: "nil and empty filters skipped",
			build: query.NewBuilder(testProjection()).
				WhereEquals("Prediction", nil).
				WhereEquals("Prediction", (*string)(nil)).
				WhereContains("Prediction", nil).
				WhereContains("Prediction", ptr("")).
				WhereMin("CreatedAt", (*time.Time)(nil)).
				WhereSearch(nil, "Prediction").
				Build,
			wantSQL: "SELECT " + columns + " FROM public.predictions p",
		},
		{
			name: "contains",
			build: query.NewBuilder(testProjection()).
				WhereContains("Prediction", ptr("ak")).
				Build,
			wantSQL:  "SELECT " + columns + " FROM public.predictions p WHERE p.prediction ILIKE $1",
			wantArgs: []any{"%ak%"},
		},
		{
			name: "range",
			build: query.NewBuilder(testProjection()).
				WhereMin("CreatedAt", since).
				WhereMax("CreatedAt", until).
				BuildCount,
			wantSQL:  "SELECT COUNT(*) FROM public.predictions p WHERE p.created_at >= $1 AND p.created_at <= $2",
			wantArgs: []any{since, until},
		},
		{
			name: "search",
			build: query.NewBuilder(testProjection()).
				WhereSearch(ptr("re"), "Prediction", "ID").
				Build,
			wantSQL:  "SELECT " + columns + " FROM public.predictions p WHERE (p.prediction ILIKE $1 OR p.id ILIKE $2)",
			wantArgs: []any{"%re%", "%re%"},
		},
		{
			name: "parameters number across conditions",
			build: func() (string, []any) {
				return query.NewBuilder(testProjection(), query.SortField{Field: "ID"}).
					WhereEquals("Prediction", "Real").
					WhereContains("ID", ptr("ab")).
					BuildPage(3, 25)
			},
			wantSQL:  "SELECT " + columns + " FROM public.predictions p WHERE p.prediction = $1 AND p.id ILIKE $2 ORDER BY p.id ASC LIMIT 25 OFFSET 50",
			wantArgs: []any{"Real", "%ab%"},
		},
		{
			name: "explicit order overrides default",
			build: query.NewBuilder(testProjection(), newest).
				OrderByFields([]query.SortField{{Field: "Prediction"}, newest}).
				Build,
			wantSQL: "SELECT " + columns + " FROM public.predictions p ORDER BY p.prediction ASC, p.created_at DESC",
		},
		{
			name: "unknown sort fields dropped",
			build: query.NewBuilder(testProjection(), newest).
				OrderByFields([]query.SortField{{Field: "id; DROP TABLE predictions"}, {Field: "ID"}}).
				Build,
			wantSQL: "SELECT " + columns + " FROM public.predictions p ORDER BY p.id ASC",
		},
		{
			name: "only unknown sort fields keep default",
			build: query.NewBuilder(testProjection(), newest).
				OrderByFields([]query.SortField{{Field: "nope"}}).
				Build,
			wantSQL: "SELECT " + columns + " FROM public.predictions p ORDER BY p.created_at DESC",
		},
		{
			name: "joined expression filter",
			build: query.NewBuilder(joinedProjection()).
				WhereEquals("Flagged", true).
				BuildCount,
			wantSQL:  "SELECT COUNT(*) FROM public.predictions p LEFT JOIN public.prediction_flags f ON f.prediction_id = p.id WHERE (f.id IS NOT NULL) = $1",
			wantArgs: []any{true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build()
			if sql != tt.wantSQL {
				t.Errorf("sql:\n got  %q\n want %q", sql, tt.wantSQL)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %v, want %v", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}
