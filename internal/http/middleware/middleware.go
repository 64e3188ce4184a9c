// Package middleware holds the http.Handler wrappers shared by every route.
package middleware

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Stack applies middleware in the order it was added: the first one added
// sees the request first.
type Stack struct {
	stack []Middleware
}

// New returns a Stack with mws already added.
func New(mws ...Middleware) *Stack {
	return &Stack{stack: append([]Middleware(nil), mws...)}
}

// Use adds mw to the inside of the stack.
func (s *Stack) Use(mw Middleware) {
	s.stack = append(s.stack, mw)
}

// Apply wraps h with every middleware in the stack.
func (s *Stack) Apply(h http.Handler) http.Handler {
	for i := len(s.stack) - 1; i >= 0; i-- {
		h = s.stack[i](h)
	}
	return h
}

// Chain wraps a single handler func, for routes that need extra middleware
// on top of the global stack.
func Chain(h http.HandlerFunc, mws ...Middleware) http.Handler {
	return New(mws...).Apply(h)
}
