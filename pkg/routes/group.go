// Package routes declares HTTP routes in groups that can be registered on a
// mux and described in an OpenAPI document.
package routes

import (
	"net/http"
	"slices"

	"github.com/JaimeStill/speechmark/pkg/openapi"
)

// Group organizes routes under a common prefix with shared tags.
type Group struct {
	Prefix   string
	Tags     []string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	walk("", nil, groups, func(path string, _ []string, route Route) {
		mux.HandleFunc(route.Method+" "+path, route.Handler)
	})
}

// Describe adds every documented route to spec, with paths rooted at base.
// Group tags are applied to operations that declare none.
func Describe(spec *openapi.Spec, base string, groups ...Group) error {
	var err error
	walk(base, nil, groups, func(path string, tags []string, route Route) {
		if route.OpenAPI == nil || err != nil {
			return
		}
		op := *route.OpenAPI
		if len(op.Tags) == 0 {
			op.Tags = tags
		}
		err = spec.AddOperation(route.Method, path, &op)
	})
	return err
}

func walk(prefix string, tags []string, groups []Group, visit func(path string, tags []string, route Route)) {
	for _, group := range groups {
		fullPrefix := prefix + group.Prefix
		groupTags := slices.Concat(tags, group.Tags)

		for _, route := range group.Routes {
			visit(fullPrefix+route.Pattern, groupTags, route)
		}
		walk(fullPrefix, groupTags, group.Children, visit)
	}
}
