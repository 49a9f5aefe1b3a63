// Package routes declares route groups and registers them on a mux.
package routes

import (
	"net/http"
	"slices"
)

// Group organizes routes under a common prefix. Middleware wraps every route
// in the group and its children; the first entry is outermost and parent
// middleware wraps child middleware.
type Group struct {
	Prefix     string
	Middleware []func(http.Handler) http.Handler
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux Mux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", nil, group)
	}
}

func registerGroup(mux Mux, parentPrefix string, parentMW []func(http.Handler) http.Handler, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	mw := append(slices.Clip(parentMW), group.Middleware...)

	for _, route := range group.Routes {
		var h http.Handler = route.Handler
		for _, fn := range slices.Backward(mw) {
			h = fn(h)
		}
		mux.Handle(route.Method+" "+fullPrefix+route.Pattern, h)
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, mw, child)
	}
}
