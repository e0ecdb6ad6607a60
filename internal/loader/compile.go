package loader

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/tbranagh/storyloom/pkg/world"
)

// compile converts the collected Lua tables into a world document. Only
// shape problems are reported here (bad field types, duplicate ids);
// cross-reference checks belong to the graph builder.
func compile(coll *collector) (*world.Document, error) {
	if coll.metadata == nil {
		return nil, fmt.Errorf("world file declares no World { ... } block")
	}

	doc := &world.Document{
		Metadata: world.Metadata{
			Title:         tableString(coll.metadata, "title"),
			Start:         tableString(coll.metadata, "start"),
			SchemaVersion: tableString(coll.metadata, "schema_version"),
		},
	}

	seen := make(map[string]bool)
	claim := func(id string) error {
		if seen[id] {
			return fmt.Errorf("duplicate id %q", id)
		}
		seen[id] = true
		return nil
	}

	for _, raw := range coll.locations {
		if err := claim(raw.id); err != nil {
			return nil, err
		}
		loc := &world.Location{Entity: compileEntity(raw.table, "exits")}
		exits, err := compileExits(raw.id, raw.table)
		if err != nil {
			return nil, err
		}
		loc.Exits = exits
		if doc.Locations == nil {
			doc.Locations = make(map[string]*world.Location)
		}
		doc.Locations[raw.id] = loc
	}

	for _, raw := range coll.actors {
		if err := claim(raw.id); err != nil {
			return nil, err
		}
		actor := &world.Actor{
			Entity:     compileEntity(raw.table, "health", "max_health", "body_form", "immunities"),
			Health:     tableInt(raw.table, "health"),
			MaxHealth:  tableInt(raw.table, "max_health"),
			BodyForm:   tableString(raw.table, "body_form"),
			Immunities: tableStrings(raw.table, "immunities"),
		}
		if doc.Actors == nil {
			doc.Actors = make(map[string]*world.Actor)
		}
		doc.Actors[raw.id] = actor
	}

	for _, raw := range coll.items {
		if err := claim(raw.id); err != nil {
			return nil, err
		}
		item := &world.Item{
			Entity:   compileEntity(raw.table, "portable"),
			Portable: tableBool(raw.table, "portable"),
		}
		if doc.Items == nil {
			doc.Items = make(map[string]*world.Item)
		}
		doc.Items[raw.id] = item
	}

	for _, raw := range coll.locks {
		if err := claim(raw.id); err != nil {
			return nil, err
		}
		lock := &world.Lock{
			Entity: compileEntity(raw.table, "key", "locked"),
			Key:    tableString(raw.table, "key"),
			Locked: tableBool(raw.table, "locked"),
		}
		if doc.Locks == nil {
			doc.Locks = make(map[string]*world.Lock)
		}
		doc.Locks[raw.id] = lock
	}

	for _, raw := range coll.parts {
		if err := claim(raw.id); err != nil {
			return nil, err
		}
		part := &world.Part{
			Entity: compileEntity(raw.table, "of"),
			Of:     tableString(raw.table, "of"),
		}
		if doc.Parts == nil {
			doc.Parts = make(map[string]*world.Part)
		}
		doc.Parts[raw.id] = part
	}

	var err error
	if doc.Commitments, err = compileBag(coll.commitments, claim); err != nil {
		return nil, err
	}
	if doc.ScheduledEvents, err = compileBag(coll.scheduledEvents, claim); err != nil {
		return nil, err
	}
	if doc.Gossip, err = compileBag(coll.gossip, claim); err != nil {
		return nil, err
	}
	if doc.Spreads, err = compileBag(coll.spreads, claim); err != nil {
		return nil, err
	}

	return doc, nil
}

// compileEntity lifts the shared entity fields from a Lua table. Keys the
// caller names in skip belong to the typed wrapper and stay out of the
// property bag; everything else unrecognized lands in Properties so the
// Lua form round-trips the same as JSON.
func compileEntity(tbl *lua.LTable, skip ...string) world.Entity {
	e := world.Entity{
		Name:        tableString(tbl, "name"),
		Description: tableString(tbl, "description"),
		Location:    tableString(tbl, "location"),
		Behaviors:   tableStrings(tbl, "behaviors"),
	}

	known := map[string]bool{
		"name": true, "description": true, "location": true,
		"behaviors": true, "properties": true,
	}
	for _, k := range skip {
		known[k] = true
	}

	if props, ok := tbl.RawGetString("properties").(*lua.LTable); ok {
		e.Properties = tableToMap(props)
	}
	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok || known[string(key)] {
			return
		}
		if e.Properties == nil {
			e.Properties = make(map[string]any)
		}
		e.Properties[string(key)] = goValue(v)
	})

	return e
}

// compileExits reads the exits table: direction keys mapping either to a
// destination string or to a detail table with to/door/description.
// Directions are sorted so two loads of the same file produce the same
// document.
func compileExits(locID string, tbl *lua.LTable) ([]world.Exit, error) {
	exitsTbl, ok := tbl.RawGetString("exits").(*lua.LTable)
	if !ok {
		return nil, nil
	}

	var exits []world.Exit
	var badKey error
	exitsTbl.ForEach(func(k, v lua.LValue) {
		direction, ok := k.(lua.LString)
		if !ok {
			badKey = fmt.Errorf("location %q has a non-string exit direction", locID)
			return
		}
		exit := world.Exit{Direction: string(direction)}
		switch dest := v.(type) {
		case lua.LString:
			exit.Destination = string(dest)
		case *lua.LTable:
			exit.Destination = tableString(dest, "to")
			exit.Door = tableString(dest, "door")
			exit.Description = tableString(dest, "description")
		default:
			badKey = fmt.Errorf("location %q exit %q must be a destination string or table", locID, direction)
			return
		}
		exits = append(exits, exit)
	})
	if badKey != nil {
		return nil, badKey
	}

	sort.Slice(exits, func(i, j int) bool { return exits[i].Direction < exits[j].Direction })
	return exits, nil
}

// compileBag builds one of the schedule-like collections, where every
// field beyond name and description is mechanic data.
func compileBag(entries []rawEntry, claim func(string) error) (map[string]*world.Entity, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string]*world.Entity, len(entries))
	for _, raw := range entries {
		if err := claim(raw.id); err != nil {
			return nil, err
		}
		e := compileEntity(raw.table)
		out[raw.id] = &e
	}
	return out, nil
}

func tableString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func tableInt(tbl *lua.LTable, key string) int {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

func tableBool(tbl *lua.LTable, key string) bool {
	if b, ok := tbl.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return false
}

func tableStrings(tbl *lua.LTable, key string) []string {
	list, ok := tbl.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil
	}
	var out []string
	list.ForEach(func(_, v lua.LValue) {
		if s, ok := v.(lua.LString); ok {
			out = append(out, string(s))
		}
	})
	return out
}

// goValue converts a Lua value to the shapes JSON decoding produces:
// numbers become float64, tables become map[string]any or []any.
func goValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		if isArray(val) {
			var out []any
			val.ForEach(func(_, item lua.LValue) {
				out = append(out, goValue(item))
			})
			return out
		}
		return tableToMap(val)
	default:
		return nil
	}
}

func tableToMap(tbl *lua.LTable) map[string]any {
	out := make(map[string]any)
	tbl.ForEach(func(k, v lua.LValue) {
		if key, ok := k.(lua.LString); ok {
			out[string(key)] = goValue(v)
		}
	})
	return out
}

// isArray reports whether every key of the table is a number, i.e. the
// table was written as a Lua sequence.
func isArray(tbl *lua.LTable) bool {
	if tbl.Len() == 0 {
		return false
	}
	array := true
	tbl.ForEach(func(k, _ lua.LValue) {
		if _, ok := k.(lua.LNumber); !ok {
			array = false
		}
	})
	return array
}
