// Package reqctx tracks which resources a single in-flight request touched.
//
// A Scope travels with the request's context.Context, so any code on the
// request's call chain (handlers, services, gorm callbacks) can record into it
// without a parameter of its own. Two requests never share a Scope.
package reqctx

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type scopeKey struct{}

// Scope is the per-request resource set. Insertion order is kept only so that
// output is stable; uniqueness is what matters.
type Scope struct {
	id string

	mu     sync.Mutex
	seen   map[string]struct{}
	names  []string
	frozen bool
}

// Open starts a new scope bound to ctx with a fresh request id.
func Open(ctx context.Context) (context.Context, *Scope) {
	return OpenWithID(ctx, uuid.NewString())
}

// OpenWithID is Open with a caller supplied request id (e.g. a trusted
// X-Request-ID). An empty id falls back to a generated one.
func OpenWithID(ctx context.Context, id string) (context.Context, *Scope) {
	if ctx == nil {
		ctx = context.Background()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	s := &Scope{
		id:   id,
		seen: make(map[string]struct{}),
	}
	return context.WithValue(ctx, scopeKey{}, s), s
}

// FromContext returns the scope active for ctx, or nil.
func FromContext(ctx context.Context) *Scope {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// Record adds name to the scope active for ctx. No-op without a scope.
func Record(ctx context.Context, name string) {
	if s := FromContext(ctx); s != nil {
		s.Record(name)
	}
}

// RequestID returns the id of the scope active for ctx, or "".
func RequestID(ctx context.Context) string {
	if s := FromContext(ctx); s != nil {
		return s.id
	}
	return ""
}

func (s *Scope) RequestID() string {
	return s.id
}

// Record appends name if it is new. It reports whether the set changed;
// a frozen scope ignores further records.
func (s *Scope) Record(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return false
	}
	if _, ok := s.seen[name]; ok {
		return false
	}
	s.seen[name] = struct{}{}
	s.names = append(s.names, name)
	return true
}

// Resources returns a copy of the names recorded so far.
func (s *Scope) Resources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Freeze stops the scope from accepting records and returns its final set.
// Calling it more than once returns the same set.
func (s *Scope) Freeze() []string {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
	return s.Resources()
}

func (s *Scope) Frozen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frozen
}
