package routing

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// RouteGroup prefixes patterns and prepends group wrappers before delegating to its Router.
//
//	router.Group("/api/", func(api *RouteGroup) {
//	  api.Group("wizard/", func(wz *RouteGroup) {
//	    wz.HandleFunc("POST next", next)   // "POST /api/wizard/next"
//	  }, sessionWrapper)
//	})
//
// Wrappers run outermost group first, then the route's own, then the handler.
type RouteGroup struct {
	Router
	Prefix          string
	HandlerWrappers []HandlerWrapper
}

var _ Router = (*RouteGroup)(nil)

// joinPattern puts prefix between the optional method and the path of subpattern.
func joinPattern(prefix, subpattern string) string {
	full := prefix + subpattern
	if method, path, ok := strings.Cut(subpattern, " "); ok {
		full = method + " " + prefix + path
	}
	if strings.Contains(full, "//") {
		panic(fmt.Sprintf("routing: pattern %q has an empty path segment", full))
	}
	return full
}

func (g *RouteGroup) Handle(subpattern string, handler http.Handler, handlerWrappers ...HandlerWrapper) {
	h := Chain(Chain(handler, handlerWrappers...), g.HandlerWrappers...)
	g.Router.Handle(joinPattern(g.Prefix, subpattern), h)
}

func (g *RouteGroup) HandleFunc(subpattern string, handleFunc func(http.ResponseWriter, *http.Request), handlerWrappers ...HandlerWrapper) {
	g.Handle(subpattern, http.HandlerFunc(handleFunc), handlerWrappers...)
}

// Group makes a subgroup sharing the Router, with an extended prefix and wrapper list.
func (g *RouteGroup) Group(subPrefix string, batch func(*RouteGroup), handlerWrappers ...HandlerWrapper) *RouteGroup {
	sub := &RouteGroup{
		Router:          g.Router,
		Prefix:          g.Prefix + subPrefix,
		HandlerWrappers: append(slices.Clip(g.HandlerWrappers), handlerWrappers...),
	}
	batch(sub)
	return sub
}
