package crawler

// OutcomeKind classifies a single strategy attempt
type OutcomeKind int

const (
	// Absent means the strategy found nothing and the chain moves on
	Absent OutcomeKind = iota
	// Found carries a value
	Found
	// Malformed means the data was located but could not be parsed
	Malformed
	// Suppressed means the field was located but the item is unavailable;
	// the chain stops without a value
	Suppressed
)

func (k OutcomeKind) String() string {
	switch k {
	case Found:
		return "found"
	case Malformed:
		return "malformed"
	case Suppressed:
		return "suppressed"
	default:
		return "absent"
	}
}

// Outcome is the result of one strategy attempt
type Outcome[T any] struct {
	Kind  OutcomeKind
	Value T
	Err   error
}

func found[T any](v T) Outcome[T] {
	return Outcome[T]{Kind: Found, Value: v}
}

func absent[T any]() Outcome[T] {
	return Outcome[T]{Kind: Absent}
}

func malformed[T any](err error) Outcome[T] {
	return Outcome[T]{Kind: Malformed, Err: err}
}

func suppressed[T any]() Outcome[T] {
	return Outcome[T]{Kind: Suppressed}
}

// Strategy is one extraction attempt for a field
type Strategy[T any] struct {
	Name    string
	Attempt func(*Page) Outcome[T]
}

// Chain is an ordered list of strategies; the first accepted value wins
type Chain[T any] []Strategy[T]

// Resolution reports how a chain ended
type Resolution[T any] struct {
	Kind     OutcomeKind
	Value    T
	Strategy string
	// Trace records every attempt in order, for debugging and tests
	Trace []Step
}

// Step is one entry of a resolution trace
type Step struct {
	Strategy string
	Kind     OutcomeKind
	Rejected bool
}

// Resolve runs the chain against p. Values failing accept are treated as
// not found. A Suppressed outcome ends the chain with no value.
func (c Chain[T]) Resolve(p *Page, accept func(T) bool) Resolution[T] {
	res := Resolution[T]{Kind: Absent}
	for _, s := range c {
		out := s.Attempt(p)
		step := Step{Strategy: s.Name, Kind: out.Kind}

		switch out.Kind {
		case Found:
			if accept != nil && !accept(out.Value) {
				step.Rejected = true
				res.Trace = append(res.Trace, step)
				continue
			}
			res.Trace = append(res.Trace, step)
			res.Kind = Found
			res.Value = out.Value
			res.Strategy = s.Name
			return res
		case Suppressed:
			res.Trace = append(res.Trace, step)
			res.Kind = Suppressed
			res.Strategy = s.Name
			return res
		default:
			res.Trace = append(res.Trace, step)
		}
	}
	return res
}

// Then returns a new chain with more strategies appended
func (c Chain[T]) Then(more ...Strategy[T]) Chain[T] {
	out := make(Chain[T], 0, len(c)+len(more))
	out = append(out, c...)
	return append(out, more...)
}
