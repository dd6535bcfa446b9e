package routes

import (
	"net/http"
	"slices"
)

// Middleware wraps a single route handler.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// Group organizes routes under a common prefix. Middleware applies to the
// group's routes and to every child group, outermost first, with parent
// middleware wrapping child middleware.
type Group struct {
	Prefix     string
	Middleware []Middleware
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		register(mux, "", nil, group)
	}
}

// Patterns lists the mux patterns groups would register, in registration
// order.
func Patterns(groups ...Group) []string {
	var patterns []string
	for _, group := range groups {
		walk("", group, func(prefix string, r Route) {
			patterns = append(patterns, r.pattern(prefix))
		})
	}
	return patterns
}

func register(mux *http.ServeMux, parent string, inherited []Middleware, group Group) {
	chain := append(slices.Clone(inherited), group.Middleware...)
	prefix := parent + group.Prefix

	for _, route := range group.Routes {
		handler := route.Handler
		for _, mw := range slices.Backward(chain) {
			handler = mw(handler)
		}
		mux.HandleFunc(route.pattern(prefix), handler)
	}
	for _, child := range group.Children {
		register(mux, prefix, chain, child)
	}
}

func walk(parent string, group Group, fn func(prefix string, r Route)) {
	prefix := parent + group.Prefix
	for _, route := range group.Routes {
		fn(prefix, route)
	}
	for _, child := range group.Children {
		walk(prefix, child, fn)
	}
}
