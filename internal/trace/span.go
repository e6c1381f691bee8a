package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	seq    atomic.Uint64
	spanID atomic.Uint64
)

// frame is what a context carries: the tracer and the innermost open span.
type frame struct {
	t    Tracer
	span uint64
}

type frameKey struct{}

func frameOf(ctx context.Context) frame {
	if f, ok := ctx.Value(frameKey{}).(frame); ok && f.t != nil {
		return f
	}
	return frame{t: Nop}
}

// WithTracer installs t on ctx. Any enclosing span stays the parent.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	f := frameOf(ctx)
	f.t = t
	return context.WithValue(ctx, frameKey{}, f)
}

// FromContext returns the tracer on ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	return frameOf(ctx).t
}

// SpanID returns the innermost open span on ctx, 0 if none.
func SpanID(ctx context.Context) uint64 {
	return frameOf(ctx).span
}

// Span is an open interval. A nil *Span is valid and does nothing,
// which is what Start hands out when the scope is filtered.
type Span struct {
	t      Tracer
	id     uint64
	parent uint64
	scope  Scope
	name   string
	start  time.Time
	attrs  []Attr
}

// Start opens a span under the one on ctx and returns a context carrying it.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	f := frameOf(ctx)
	if !f.t.Level().Admits(scope) {
		return ctx, nil
	}
	s := &Span{
		t:      f.t,
		id:     spanID.Add(1),
		parent: f.span,
		scope:  scope,
		name:   name,
		start:  time.Now(),
	}
	s.emit(KindSpanBegin, s.start, "", 0, nil)
	return context.WithValue(ctx, frameKey{}, frame{t: f.t, span: s.id}), s
}

// Attr records a key/value that is reported when the span ends.
func (s *Span) Attr(key, value string) *Span {
	if s != nil {
		s.attrs = append(s.attrs, Attr{Key: key, Value: value})
	}
	return s
}

// End closes the span and returns its duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	now := time.Now()
	took := now.Sub(s.start)
	s.emit(KindSpanEnd, now, detail, took, s.attrs)
	return took
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

func (s *Span) emit(kind Kind, at time.Time, detail string, took time.Duration, attrs []Attr) {
	s.t.Emit(Event{
		At:     at,
		Seq:    seq.Add(1),
		Kind:   kind,
		Scope:  s.scope,
		Span:   s.id,
		Parent: s.parent,
		Name:   s.name,
		Detail: detail,
		Took:   took,
		Attrs:  attrs,
	})
}

// Point records an instant event inside the current span.
func Point(ctx context.Context, scope Scope, name, detail string) {
	f := frameOf(ctx)
	if !f.t.Level().Admits(scope) {
		return
	}
	f.t.Emit(Event{
		At:     time.Now(),
		Seq:    seq.Add(1),
		Kind:   KindPoint,
		Scope:  scope,
		Parent: f.span,
		Name:   name,
		Detail: detail,
	})
}
