package trace

import "time"

// Kind is the shape of an event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

var kindNames = [...]string{KindSpanBegin: "begin", KindSpanEnd: "end", KindPoint: "point"}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event; coarser scopes are smaller.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // session refresh, CLI command
	ScopePhase                   // parse, cache, pragma, swap
	ScopeFile                    // per source file
)

var scopeNames = [...]string{ScopeDriver: "driver", ScopePhase: "phase", ScopeFile: "file"}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Attr is one annotation on a span end. Order is preserved.
type Attr struct {
	Key   string
	Value string
}

// Event is a single record handed to a Tracer.
type Event struct {
	At     time.Time
	Seq    uint64
	Kind   Kind
	Scope  Scope
	Span   uint64 // 0 for points outside any span
	Parent uint64
	Name   string // "refresh", "parse", "pragma:src/a.cpp"
	Detail string
	Took   time.Duration // set on KindSpanEnd
	Attrs  []Attr
}
