package domain

import "maps"

// Filter decides which repositories are visible. A nil *Filter shows
// everything. Filters handed to renderers should be cloned before they are
// changed so earlier holders keep seeing the old state.
type Filter struct {
	defaultState bool
	states       map[string]bool
}

// NewFilter returns a filter with no overrides.
func NewFilter(defaultState bool) *Filter {
	return &Filter{defaultState: defaultState, states: make(map[string]bool)}
}

// AllOn returns a filter that shows every repository.
func AllOn() *Filter {
	return NewFilter(true)
}

// WithOnlyRepos returns a filter that shows only the given repositories.
func WithOnlyRepos(urls ...string) *Filter {
	f := NewFilter(false)
	for _, url := range urls {
		f.states[url] = true
	}
	return f
}

// IsOn returns the override for url if there is one, else the default.
func (f *Filter) IsOn(url string) bool {
	if f == nil {
		return true
	}
	if on, ok := f.states[url]; ok {
		return on
	}
	return f.defaultState
}

// Default returns the state of repositories without an override.
func (f *Filter) Default() bool {
	if f == nil {
		return true
	}
	return f.defaultState
}

// Clone returns an independent copy.
func (f *Filter) Clone() *Filter {
	if f == nil {
		return AllOn()
	}
	return &Filter{defaultState: f.defaultState, states: maps.Clone(f.states)}
}

// SetRepo overrides the state of url.
func (f *Filter) SetRepo(url string, on bool) {
	if f.states == nil {
		f.states = make(map[string]bool)
	}
	f.states[url] = on
}

// SwitchRepo flips the state of url.
func (f *Filter) SwitchRepo(url string) {
	f.SetRepo(url, !f.IsOn(url))
}

// SetAll drops every override and sets the default.
func (f *Filter) SetAll(on bool) {
	f.defaultState = on
	clear(f.states)
}
