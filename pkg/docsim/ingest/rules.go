package ingest

// Rule is a single named text transform. Rules are pure: they return a new
// string and never touch shared state.
type Rule struct {
	Name  string
	Apply func(string) string
}

// Chain is an ordered list of rules. Later rules may rely on the output shape
// of earlier ones, so the order is part of the contract.
type Chain []Rule

// Apply runs every rule in order.
func (c Chain) Apply(text string) string {
	for _, r := range c {
		text = r.Apply(text)
	}
	return text
}

// Names returns the rule names in application order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, r := range c {
		names[i] = r.Name
	}
	return names
}

// Rule looks up a rule by name.
func (c Chain) Rule(name string) (Rule, bool) {
	for _, r := range c {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}
