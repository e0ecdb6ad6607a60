package world

import (
	"fmt"
	"sort"
	"strings"
)

// ViolationKind classifies a single validation failure.
type ViolationKind string

const (
	ViolationDuplicateID  ViolationKind = "duplicate_id"
	ViolationReservedID   ViolationKind = "reserved_id"
	ViolationDanglingRef  ViolationKind = "dangling_reference"
	ViolationCycle        ViolationKind = "containment_cycle"
	ViolationMissingStart ViolationKind = "missing_start"
)

// Violation is one structural problem found while building the graph.
type Violation struct {
	Kind    ViolationKind `json:"kind"`
	IDs     []string      `json:"ids,omitempty"`
	Message string        `json:"message"`
}

// ValidationError aggregates every violation found in a world document.
// Loading is atomic: either the whole graph is consistent or nothing is
// returned, and authors get the full list in one pass instead of fixing
// problems one rebuild at a time.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return fmt.Sprintf("world validation failed with %d problem(s):\n  %s",
		len(e.Violations), strings.Join(msgs, "\n  "))
}

func (e *ValidationError) add(kind ViolationKind, ids []string, format string, args ...any) {
	e.Violations = append(e.Violations, Violation{
		Kind:    kind,
		IDs:     ids,
		Message: fmt.Sprintf(format, args...),
	})
}

// Parse decodes a world document and builds a validated graph from it.
func Parse(data []byte) (*Graph, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// Build links a parsed document into a Graph. It never partially applies:
// on any violation the returned graph is nil and the error is a
// *ValidationError carrying every problem found. Order matters: ids are
// collected and checked for duplicates first, then all cross-references are
// resolved against the complete id set, and containment cycle detection
// runs last over the fully resolved location chains.
func Build(doc *Document) (*Graph, error) {
	g := &Graph{
		Metadata:        doc.Metadata,
		Locations:       orEmpty(doc.Locations),
		Items:           orEmpty(doc.Items),
		Actors:          orEmpty(doc.Actors),
		Locks:           orEmpty(doc.Locks),
		Parts:           orEmpty(doc.Parts),
		Commitments:     orEmpty(doc.Commitments),
		ScheduledEvents: orEmpty(doc.ScheduledEvents),
		Gossip:          orEmpty(doc.Gossip),
		Spreads:         orEmpty(doc.Spreads),
		extra:           doc.Extra,
		index:           make(map[string]*Entity),
	}

	ve := &ValidationError{}

	g.collectIDs(ve)
	g.checkReferences(ve)
	g.checkContainment(ve)

	if len(ve.Violations) > 0 {
		return nil, ve
	}
	return g, nil
}

func orEmpty[T any](m map[string]*T) map[string]*T {
	if m == nil {
		return make(map[string]*T)
	}
	return m
}

// collectIDs stamps ids and kinds from map keys onto entities, builds the
// combined index, and reports duplicates and reserved-id misuse.
func (g *Graph) collectIDs(ve *ValidationError) {
	seen := make(map[string]Kind)

	register := func(id string, kind Kind, e *Entity) {
		e.ID = id
		e.Kind = kind
		if prev, dup := seen[id]; dup {
			ve.add(ViolationDuplicateID, []string{id},
				"duplicate id %q: declared as both %s and %s", id, prev, kind)
			return
		}
		if id == PlayerID && kind != KindActor {
			ve.add(ViolationReservedID, []string{id},
				"id %q is reserved for the player actor, found %s", id, kind)
		}
		seen[id] = kind
		g.index[id] = e
	}

	for _, id := range sortedKeys(g.Locations) {
		register(id, KindLocation, &g.Locations[id].Entity)
	}
	for _, id := range sortedKeys(g.Actors) {
		register(id, KindActor, &g.Actors[id].Entity)
	}
	for _, id := range sortedKeys(g.Items) {
		register(id, KindItem, &g.Items[id].Entity)
	}
	for _, id := range sortedKeys(g.Locks) {
		register(id, KindLock, &g.Locks[id].Entity)
	}
	for _, id := range sortedKeys(g.Parts) {
		register(id, KindPart, &g.Parts[id].Entity)
	}
	for kind, coll := range map[Kind]map[string]*Entity{
		KindCommitment:     g.Commitments,
		KindScheduledEvent: g.ScheduledEvents,
		KindGossip:         g.Gossip,
		KindSpread:         g.Spreads,
	} {
		for _, id := range sortedKeys(coll) {
			register(id, kind, coll[id])
		}
	}

	if _, ok := g.Actors[PlayerID]; !ok {
		ve.add(ViolationReservedID, []string{PlayerID},
			"no actor with reserved id %q", PlayerID)
	}

	// Sort by involved id so two passes over the same document report in
	// the same order.
	sort.SliceStable(ve.Violations, func(i, j int) bool {
		return strings.Join(ve.Violations[i].IDs, ",") < strings.Join(ve.Violations[j].IDs, ",")
	})
}

// checkReferences validates every cross-reference against the complete id
// set built by collectIDs.
func (g *Graph) checkReferences(ve *ValidationError) {
	if g.Metadata.Start == "" {
		ve.add(ViolationMissingStart, nil, "metadata start location is not set")
	} else if _, ok := g.Locations[g.Metadata.Start]; !ok {
		ve.add(ViolationMissingStart, []string{g.Metadata.Start},
			"metadata start location %q is not a defined location", g.Metadata.Start)
	}

	for _, id := range sortedKeys(g.Locations) {
		loc := g.Locations[id]
		for _, exit := range loc.Exits {
			if _, ok := g.Locations[exit.Destination]; !ok {
				ve.add(ViolationDanglingRef, []string{id, exit.Destination},
					"location %q exit %q leads to undefined location %q",
					id, exit.Direction, exit.Destination)
			}
			if exit.Door != "" {
				if _, ok := g.Locks[exit.Door]; !ok {
					ve.add(ViolationDanglingRef, []string{id, exit.Door},
						"location %q exit %q names undefined lock %q",
						id, exit.Direction, exit.Door)
				}
			}
		}
	}

	for _, id := range sortedKeys(g.Actors) {
		g.checkContainerRef(ve, id, g.Actors[id].Location, "actor")
	}
	for _, id := range sortedKeys(g.Items) {
		g.checkContainerRef(ve, id, g.Items[id].Location, "item")
	}

	for _, id := range sortedKeys(g.Locks) {
		lock := g.Locks[id]
		if lock.Key != "" {
			if _, ok := g.Items[lock.Key]; !ok {
				ve.add(ViolationDanglingRef, []string{id, lock.Key},
					"lock %q key %q is not a defined item", id, lock.Key)
			}
		}
	}

	for _, id := range sortedKeys(g.Parts) {
		part := g.Parts[id]
		if part.Of == "" || !g.Contains(part.Of) {
			ve.add(ViolationDanglingRef, []string{id, part.Of},
				"part %q belongs to undefined entity %q", id, part.Of)
		}
	}
}

// checkContainerRef validates that a location reference resolves to a
// location, an actor (inventory), an item (container), or the "player"
// sentinel.
func (g *Graph) checkContainerRef(ve *ValidationError, id, ref, what string) {
	if ref == PlayerID {
		return
	}
	if ref == "" {
		ve.add(ViolationDanglingRef, []string{id}, "%s %q has no location", what, id)
		return
	}
	if _, ok := g.Locations[ref]; ok {
		return
	}
	if _, ok := g.Actors[ref]; ok {
		return
	}
	if _, ok := g.Items[ref]; ok {
		return
	}
	ve.add(ViolationDanglingRef, []string{id, ref},
		"%s %q is located in undefined container %q", what, id, ref)
}

// checkContainment walks location chains and rejects cycles. Locations are
// terminal, so only actor and item edges can participate. DFS with a
// recursion stack handles self-loops and diamonds in O(entities + edges).
func (g *Graph) checkContainment(ve *ValidationError) {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int)

	next := func(id string) (string, bool) {
		if it, ok := g.Items[id]; ok {
			return it.Location, it.Location != ""
		}
		if a, ok := g.Actors[id]; ok {
			return a.Location, a.Location != ""
		}
		return "", false
	}

	var walk func(id string, trail []string)
	walk = func(id string, trail []string) {
		switch state[id] {
		case done:
			return
		case onStack:
			// Trim the trail back to where the cycle starts.
			start := 0
			for i, t := range trail {
				if t == id {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, trail[start:]...), id)
			ve.add(ViolationCycle, cycle[:len(cycle)-1],
				"containment cycle: %s", strings.Join(cycle, " -> "))
			return
		}
		state[id] = onStack
		if ref, ok := next(id); ok {
			// The "player" sentinel is the player actor's own id, so it
			// follows the same edge rules as any other container.
			if _, isLoc := g.Locations[ref]; !isLoc && g.Contains(ref) {
				walk(ref, append(trail, id))
			}
		}
		state[id] = done
	}

	for _, id := range sortedKeys(g.Items) {
		walk(id, nil)
	}
	for _, id := range sortedKeys(g.Actors) {
		walk(id, nil)
	}
}

func sortedKeys[T any](m map[string]*T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
