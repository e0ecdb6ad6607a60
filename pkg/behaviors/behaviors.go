// Package behaviors assembles the stock behavior modules into a populated
// vocabulary registry.
package behaviors

import (
	"github.com/tbranagh/storyloom/pkg/behaviors/conditions"
	"github.com/tbranagh/storyloom/pkg/behaviors/core"
	"github.com/tbranagh/storyloom/pkg/behaviors/death"
	"github.com/tbranagh/storyloom/pkg/behaviors/environment"
	"github.com/tbranagh/storyloom/pkg/behaviors/npcs"
	"github.com/tbranagh/storyloom/pkg/behaviors/visibility"
	"github.com/tbranagh/storyloom/pkg/vocab"
)

// Default returns the stock module manifest in registration order. Order
// matters only for gates, which run in the order their modules register.
func Default() []vocab.Module {
	return []vocab.Module{
		core.New(),
		visibility.New(),
		npcs.New(),
		environment.New(),
		conditions.New(),
		death.New(),
	}
}

// NewRegistry registers the given modules (the Default set when none are
// given) and returns the populated registry. Any registration conflict
// aborts; modules are authored independently, and a conflicting manifest
// is an authoring error.
func NewRegistry(modules ...vocab.Module) (*vocab.Registry, error) {
	if len(modules) == 0 {
		modules = Default()
	}
	r := vocab.NewRegistry()
	for _, m := range modules {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}
