package routing

import "net/http"

// Router registers Go 1.22 mux patterns ("METHOD /path/{var}") with optional wrappers.
type Router interface {
	http.Handler
	Handle(pattern string, handler http.Handler, handlerWrappers ...HandlerWrapper)
	HandleFunc(pattern string, handleFunc func(http.ResponseWriter, *http.Request), handlerWrappers ...HandlerWrapper)
}

// HandlerWrapper is a middleware: Wrap returns a handler that runs around h.
type HandlerWrapper interface {
	Wrap(h http.Handler) http.Handler
}

// HandlerWrapperFunc adapts a plain middleware func to HandlerWrapper.
type HandlerWrapperFunc func(http.Handler) http.Handler

func (f HandlerWrapperFunc) Wrap(h http.Handler) http.Handler {
	return f(h)
}

// Chain wraps h so that wrappers[0] runs first and h runs last.
func Chain(h http.Handler, wrappers ...HandlerWrapper) http.Handler {
	for i := len(wrappers) - 1; i >= 0; i-- {
		h = wrappers[i].Wrap(h)
	}
	return h
}
