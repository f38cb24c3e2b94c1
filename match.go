package relay

// MatchConfig maps paths to patterns. Every entry must match for the
// configuration to match (AND). An empty configuration never matches, so a
// listener cannot become a catch-all by accident.
type MatchConfig map[string]Pattern

// Evaluate reports whether the event satisfies every entry of cfg.
func Evaluate(e *Event, cfg MatchConfig) bool {
	if e == nil || len(cfg) == 0 {
		return false
	}
	for path, p := range cfg {
		if !p.Match(e.Lookup(path)) {
			return false
		}
	}
	return true
}

// Match implements Discriminator.
func (c MatchConfig) Match(e *Event) bool {
	return Evaluate(e, c)
}

var _ Discriminator = MatchConfig(nil)
