package discovery

import "path"

// propFilter is one add_match_property criterion: Value == nil means
// "property present, any value".
type propFilter struct {
	Name  string
	Value *string
}

// Enumerate is the enumeration handle. Filters accumulate
// until ScanDevices or ScanSubsystems is called; scanning replaces the
// previous result list wholesale.
type Enumerate struct {
	refcount
	ctx            *Context
	scanInput      bool
	sysnamePattern string
	propFilters    []propFilter
	results        []string
}

// NewEnumerate returns an enumeration handle bound to ctx.
func NewEnumerate(ctx *Context) *Enumerate {
	if ctx == nil {
		return nil
	}
	ctx.Ref()
	return &Enumerate{refcount: refcount{n: 1}, ctx: ctx}
}

// Ref increments the enumeration's refcount.
func (e *Enumerate) Ref() *Enumerate {
	e.ref()
	return e
}

// Unref decrements the enumeration's refcount, releasing its context
// reference once it reaches zero.
func (e *Enumerate) Unref() *Enumerate {
	if e.unref() <= 0 {
		e.ctx.Unref()
		return nil
	}
	return e
}

// AddMatchSubsystem sets the "scan input" flag when sub == "input"; any
// other subsystem is accepted but has no effect, since this layer only ever
// enumerates the input subsystem's gamepad tree.
func (e *Enumerate) AddMatchSubsystem(sub string) {
	if sub == "input" {
		e.scanInput = true
	}
}

// AddMatchSysname stores a single glob pattern; the last call wins.
func (e *Enumerate) AddMatchSysname(pattern string) {
	e.sysnamePattern = pattern
}

// AddMatchProperty prepends a (name, value) filter. A nil value matches any
// value for that property name.
func (e *Enumerate) AddMatchProperty(name string, value *string) {
	e.propFilters = append([]propFilter{{Name: name, Value: value}}, e.propFilters...)
}

// The following add_match_* / nomatch_* operations are accepted by real
// libudev callers but have no bearing on a static, hotplug-free tree of
// gamepads: they succeed and do nothing.
func (e *Enumerate) AddMatchTag(string)                    {}
func (e *Enumerate) AddMatchSysnum(string)                 {}
func (e *Enumerate) AddMatchParent(*Device)                {}
func (e *Enumerate) AddMatchIsInitialized()                {}
func (e *Enumerate) AddNomatchSubsystem(string)            {}
func (e *Enumerate) AddNomatchSysname(string)              {}
func (e *Enumerate) AddNomatchProperty(string, *string)    {}
func (e *Enumerate) AddMatchDevicenode() {}

// ScanDevices rebuilds the result list by testing every JS/EVENT node (and,
// conditionally, every INPUT_PARENT node) against the accumulated filters.
func (e *Enumerate) ScanDevices() error {
	e.results = nil
	if !e.scanInput {
		return nil
	}
	table := Build()
	for _, slot := range table.Slots {
		for _, n := range []*Node{slot.JS, slot.Event} {
			if globMatch(e.sysnamePattern, n.Sysname) && matchPropertyFilters(e.propFilters, n.Properties) {
				e.results = append(e.results, n.Syspath)
			}
		}
		if e.sysnamePattern != "" &&
			globMatch(e.sysnamePattern, slot.InputParent.Sysname) &&
			matchPropertyFilters(e.propFilters, slot.InputParent.Properties) {
			e.results = append(e.results, slot.InputParent.Syspath)
		}
	}
	return nil
}

// ScanSubsystems discards any previous results; nothing is ever enumerated
// through it (this layer has no non-input subsystems worth discovering that
// way).
func (e *Enumerate) ScanSubsystems() error {
	e.results = nil
	return nil
}

// GetListEntry returns the head of the current result list (bare syspath
// names, no values).
func (e *Enumerate) GetListEntry() *ListEntry {
	return buildNameList(e.results)
}

// globMatch implements POSIX glob semantics (*, ?, bracket classes) via
// path.Match, which already speaks that grammar;
// an empty pattern is vacuously true.
func globMatch(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	ok, err := path.Match(pattern, name)
	if err != nil {
		return false
	}
	return ok
}

// matchPropertyFilters implements the filter conjunction: a device
// matches iff every filter finds a corresponding property
// entry (any value, if the filter's value is nil).
func matchPropertyFilters(filters []propFilter, props []KV) bool {
	for _, f := range filters {
		found := false
		for _, p := range props {
			if p.Name != f.Name {
				continue
			}
			if f.Value == nil || p.Value == *f.Value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
