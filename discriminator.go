package relay

// Discriminator is a predicate over an event. The classifier and the
// pattern listeners are both built from discriminators.
type Discriminator interface {
	Match(e *Event) bool
}

// DiscriminatorFunc adapts a function to Discriminator.
type DiscriminatorFunc func(e *Event) bool

// Match implements Discriminator.
func (f DiscriminatorFunc) Match(e *Event) bool { return f(e) }

// HasFields returns a Discriminator that matches when every path resolves
// to a non-null value.
func HasFields(paths ...string) Discriminator {
	return hasFields{paths: paths}
}

type hasFields struct {
	paths []string
}

func (d hasFields) Match(e *Event) bool {
	for _, p := range d.paths {
		if !e.HasField(p) {
			return false
		}
	}
	return true
}

// FieldEquals returns a Discriminator that matches when the path holds a
// string equal to value.
func FieldEquals(path, value string) Discriminator {
	return fieldEquals{path: path, value: value}
}

type fieldEquals struct {
	path  string
	value string
}

func (d fieldEquals) Match(e *Event) bool {
	s, ok := e.GetString(d.path)
	return ok && s == d.value
}

// FieldMatches returns a Discriminator that matches when the value at path
// satisfies the pattern.
func FieldMatches(path string, p Pattern) Discriminator {
	return fieldMatches{path: path, pattern: p}
}

type fieldMatches struct {
	path    string
	pattern Pattern
}

func (d fieldMatches) Match(e *Event) bool {
	return d.pattern.Match(e.Lookup(d.path))
}

// And returns a Discriminator that matches when all discriminators match.
func And(ds ...Discriminator) Discriminator {
	return and{ds: ds}
}

type and struct {
	ds []Discriminator
}

func (d and) Match(e *Event) bool {
	for _, disc := range d.ds {
		if !disc.Match(e) {
			return false
		}
	}
	return true
}

// Or returns a Discriminator that matches when any discriminator matches.
func Or(ds ...Discriminator) Discriminator {
	return or{ds: ds}
}

type or struct {
	ds []Discriminator
}

func (d or) Match(e *Event) bool {
	for _, disc := range d.ds {
		if disc.Match(e) {
			return true
		}
	}
	return false
}

// Not inverts a Discriminator.
func Not(d Discriminator) Discriminator {
	return DiscriminatorFunc(func(e *Event) bool { return !d.Match(e) })
}
