package vocab

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tbranagh/storyloom/pkg/turn"
)

// ErrUnknownVerb is returned by VerbHandler for words no module claims.
var ErrUnknownVerb = errors.New("unknown verb")

// Module is the contract a behavior module fulfils: a declarative
// vocabulary fragment plus the handler functions it names. Handler keys
// follow the naming convention: "handle_<verb>" for verbs and
// "on_<event>" for hook and gate events.
type Module interface {
	Name() string
	Vocabulary() Fragment
	Handlers() map[string]turn.Handler
	GateHandlers() map[string]turn.GateHandler
}

// ConflictKind classifies a registration conflict.
type ConflictKind string

const (
	ConflictDuplicateVerb    ConflictKind = "duplicate_verb"
	ConflictAmbiguousSynonym ConflictKind = "ambiguous_synonym"
	ConflictDuplicateHook    ConflictKind = "duplicate_hook"
	ConflictMissingHandler   ConflictKind = "missing_handler"
)

// Conflict is one authoring error found while registering a module.
type Conflict struct {
	Kind    ConflictKind
	Module  string
	Message string
}

// ConflictError aggregates every conflict a module registration produced.
// Registration is all-or-nothing per module: a conflicting module
// contributes nothing to the registry.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	msgs := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		msgs[i] = c.Message
	}
	return fmt.Sprintf("module registration failed with %d conflict(s):\n  %s",
		len(e.Conflicts), strings.Join(msgs, "\n  "))
}

func (e *ConflictError) add(kind ConflictKind, module, format string, args ...any) {
	e.Conflicts = append(e.Conflicts, Conflict{
		Kind:    kind,
		Module:  module,
		Message: fmt.Sprintf(format, args...),
	})
}

// gate is one registered gating check, kept in registration order.
type gate struct {
	Module  string
	Event   string
	Handler turn.GateHandler
}

// Registry merges per-module vocabulary fragments into global lookup
// tables. Conflicts are reported loudly and exhaustively; silent override
// (last-registration-wins) is deliberately not supported.
type Registry struct {
	verbs      map[string]Verb
	verbOwner  map[string]string
	handlers   map[string]turn.Handler // canonical verb word -> handler
	synonyms   map[string]string       // synonym -> canonical word
	hooks      map[string]string       // hook name -> event name
	hookOwner  map[string]string
	events     map[string]turn.Handler // event name -> handler
	eventOwner map[string]string
	gates      []gate
	nouns      map[string]bool
	adjectives map[string]bool
	modules    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		verbs:      make(map[string]Verb),
		verbOwner:  make(map[string]string),
		handlers:   make(map[string]turn.Handler),
		synonyms:   make(map[string]string),
		hooks:      make(map[string]string),
		hookOwner:  make(map[string]string),
		events:     make(map[string]turn.Handler),
		eventOwner: make(map[string]string),
		nouns:      make(map[string]bool),
		adjectives: make(map[string]bool),
	}
}

// Register merges a module's vocabulary into the registry. Every conflict
// in the fragment is collected before reporting, so authors can fix a
// batch per run. A module that conflicts contributes nothing.
func (r *Registry) Register(m Module) error {
	ce := &ConflictError{}
	frag := m.Vocabulary()
	handlers := m.Handlers()
	gateHandlers := m.GateHandlers()

	// First pass: detect every conflict without mutating the registry.
	// Prior registry state and words earlier in this same fragment both
	// count as taken.
	fragVerbs := make(map[string]bool)
	fragSyns := make(map[string]string)
	for _, verb := range frag.Verbs {
		if owner, taken := r.verbOwner[verb.Word]; taken {
			ce.add(ConflictDuplicateVerb, m.Name(),
				"verb %q from module %q already registered by module %q",
				verb.Word, m.Name(), owner)
		}
		if fragVerbs[verb.Word] {
			ce.add(ConflictDuplicateVerb, m.Name(),
				"verb %q declared twice by module %q",
				verb.Word, m.Name())
		}
		if canonical, taken := r.synonyms[verb.Word]; taken && canonical != verb.Word {
			ce.add(ConflictAmbiguousSynonym, m.Name(),
				"verb %q from module %q is already a synonym of %q",
				verb.Word, m.Name(), canonical)
		}
		if canonical, taken := fragSyns[verb.Word]; taken && canonical != verb.Word {
			ce.add(ConflictAmbiguousSynonym, m.Name(),
				"verb %q from module %q is already a synonym of %q",
				verb.Word, m.Name(), canonical)
		}
		fragVerbs[verb.Word] = true
		for _, syn := range verb.Synonyms {
			if canonical, taken := r.synonyms[syn]; taken && canonical != verb.Word {
				ce.add(ConflictAmbiguousSynonym, m.Name(),
					"synonym %q of verb %q already resolves to verb %q",
					syn, verb.Word, canonical)
			}
			if canonical, taken := fragSyns[syn]; taken && canonical != verb.Word {
				ce.add(ConflictAmbiguousSynonym, m.Name(),
					"synonym %q of verb %q already resolves to verb %q",
					syn, verb.Word, canonical)
			}
			if owner, taken := r.verbOwner[syn]; taken && syn != verb.Word {
				ce.add(ConflictAmbiguousSynonym, m.Name(),
					"synonym %q of verb %q shadows a verb registered by module %q",
					syn, verb.Word, owner)
			}
			if fragVerbs[syn] && syn != verb.Word {
				ce.add(ConflictAmbiguousSynonym, m.Name(),
					"synonym %q of verb %q shadows a verb declared by module %q",
					syn, verb.Word, m.Name())
			}
			fragSyns[syn] = verb.Word
		}
		if _, ok := handlers[verb.HandlerName()]; !ok {
			ce.add(ConflictMissingHandler, m.Name(),
				"module %q declares verb %q but exports no handler %q",
				m.Name(), verb.Word, verb.HandlerName())
		}
	}

	fragEvents := make(map[string]string)
	for hook, event := range frag.Hooks {
		if owner, taken := r.hookOwner[hook]; taken {
			ce.add(ConflictDuplicateHook, m.Name(),
				"hook %q from module %q already bound by module %q",
				hook, m.Name(), owner)
		}
		if owner, taken := r.eventOwner[event]; taken {
			ce.add(ConflictDuplicateHook, m.Name(),
				"event %q from module %q already owned by module %q",
				event, m.Name(), owner)
		}
		if prior, taken := fragEvents[event]; taken {
			ce.add(ConflictDuplicateHook, m.Name(),
				"hooks %q and %q from module %q both bind event %q",
				prior, hook, m.Name(), event)
		}
		fragEvents[event] = hook
		if _, ok := handlers["on_"+event]; !ok {
			ce.add(ConflictMissingHandler, m.Name(),
				"module %q binds hook %q to event %q but exports no handler %q",
				m.Name(), hook, event, "on_"+event)
		}
	}

	for _, event := range frag.Gates {
		if _, ok := gateHandlers["on_"+event]; !ok {
			ce.add(ConflictMissingHandler, m.Name(),
				"module %q declares gate %q but exports no gate handler %q",
				m.Name(), event, "on_"+event)
		}
	}

	if len(ce.Conflicts) > 0 {
		return ce
	}

	// Second pass: commit.
	for _, verb := range frag.Verbs {
		r.verbs[verb.Word] = verb
		r.verbOwner[verb.Word] = m.Name()
		r.handlers[verb.Word] = handlers[verb.HandlerName()]
		for _, syn := range verb.Synonyms {
			r.synonyms[syn] = verb.Word
		}
	}
	for hook, event := range frag.Hooks {
		r.hooks[hook] = event
		r.hookOwner[hook] = m.Name()
		r.events[event] = handlers["on_"+event]
		r.eventOwner[event] = m.Name()
	}
	for _, event := range frag.Gates {
		r.gates = append(r.gates, gate{
			Module:  m.Name(),
			Event:   event,
			Handler: gateHandlers["on_"+event],
		})
	}
	for _, n := range frag.Nouns {
		r.nouns[n] = true
	}
	for _, adj := range frag.Adjectives {
		r.adjectives[adj] = true
	}
	r.modules = append(r.modules, m.Name())
	return nil
}

// VerbHandler resolves a word to its handler, trying an exact verb match
// first and falling back through the synonym table. The canonical word is
// returned alongside the handler.
func (r *Registry) VerbHandler(word string) (turn.Handler, Verb, error) {
	if h, ok := r.handlers[word]; ok {
		return h, r.verbs[word], nil
	}
	if canonical, ok := r.synonyms[word]; ok {
		return r.handlers[canonical], r.verbs[canonical], nil
	}
	return nil, Verb{}, fmt.Errorf("%w: %q", ErrUnknownVerb, word)
}

// EventForHook returns the event bound to a hook name, if any.
func (r *Registry) EventForHook(hook string) (string, bool) {
	event, ok := r.hooks[hook]
	return event, ok
}

// HandlerForEvent returns the handler registered for an event name.
func (r *Registry) HandlerForEvent(event string) (turn.Handler, bool) {
	h, ok := r.events[event]
	return h, ok
}

// Gates returns gating checks in registration order. Each may veto a
// command before its primary handler runs.
func (r *Registry) Gates() []turn.GateHandler {
	out := make([]turn.GateHandler, len(r.gates))
	for i, g := range r.gates {
		out[i] = g.Handler
	}
	return out
}

// IsNoun reports whether any module claims the word as a noun.
func (r *Registry) IsNoun(word string) bool { return r.nouns[word] }

// IsAdjective reports whether any module claims the word as an adjective.
func (r *Registry) IsAdjective(word string) bool { return r.adjectives[word] }

// Modules returns the names of registered modules in registration order.
func (r *Registry) Modules() []string {
	return append([]string(nil), r.modules...)
}
