package trace

import "errors"

// Tee fans every event out to several tracers.
type Tee struct {
	sinks []Tracer
	level Level
}

// NewTee joins tracers; its level is the most verbose among them.
func NewTee(sinks ...Tracer) *Tee {
	t := &Tee{sinks: sinks}
	for _, s := range sinks {
		t.level = max(t.level, s.Level())
	}
	return t
}

func (t *Tee) Emit(ev Event) {
	for _, s := range t.sinks {
		if s.Level().Admits(ev.Scope) {
			s.Emit(ev)
		}
	}
}

func (t *Tee) Flush() error {
	var errs []error
	for _, s := range t.sinks {
		errs = append(errs, s.Flush())
	}
	return errors.Join(errs...)
}

func (t *Tee) Close() error {
	var errs []error
	for _, s := range t.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

func (t *Tee) Level() Level { return t.level }

// FindRing returns the ring buffer behind t, looking inside tees.
func FindRing(t Tracer) (*RingTracer, bool) {
	switch tr := t.(type) {
	case *RingTracer:
		return tr, true
	case *Tee:
		for _, s := range tr.sinks {
			if r, ok := FindRing(s); ok {
				return r, true
			}
		}
	}
	return nil, false
}
