// Package vocab aggregates the grammar contributed by independently
// authored behavior modules into a single conflict-checked dispatch table.
package vocab

// Verb is one action word a module can handle. Synonyms may be shared
// across modules only when they resolve to the same canonical word.
type Verb struct {
	Word           string   `json:"word"`
	Synonyms       []string `json:"synonyms,omitempty"`
	RequiresObject bool     `json:"requires_object,omitempty"`
	Handler        string   `json:"handler,omitempty"` // handler name; defaults to "handle_<word>"
}

// Fragment is the declarative vocabulary a behavior module exports.
//
// Hooks binds a pipeline hook name (e.g. "condition_tick") to the name of
// an event handler in the module. Gates lists event handlers that run as
// pre-action gating checks and may veto a command.
type Fragment struct {
	Verbs      []Verb            `json:"verbs,omitempty"`
	Nouns      []string          `json:"nouns,omitempty"`
	Adjectives []string          `json:"adjectives,omitempty"`
	Hooks      map[string]string `json:"hooks,omitempty"`
	Gates      []string          `json:"gates,omitempty"`
}

// HandlerName returns the verb's handler name, applying the
// "handle_<word>" convention when none is declared.
func (v Verb) HandlerName() string {
	if v.Handler != "" {
		return v.Handler
	}
	return "handle_" + v.Word
}
