package directive

import (
	"sort"
	"sync"
)

// Site is a directive together with the declaration it is attached to.
type Site struct {
	Directive Directive
	Path      string // source file
	Target    string // "Foo", "Client.Get" or a type name
}

// Registry collects directive sites across files. The driver fills it from
// several goroutines while generating a directory.
type Registry struct {
	mu     sync.Mutex
	sites  []Site
	byKind map[Kind][]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sites:  make([]Site, 0),
		byKind: make(map[Kind][]int),
	}
}

// Add registers a site.
func (r *Registry) Add(site Site) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKind[site.Directive.Kind] = append(r.byKind[site.Directive.Kind], len(r.sites))
	r.sites = append(r.sites, site)
}

// All returns every site ordered by file and position.
func (r *Registry) All() []Site {
	r.mu.Lock()
	out := append([]Site(nil), r.sites...)
	r.mu.Unlock()
	sortSites(out)
	return out
}

// FilterByKind returns sites of the given kinds; no kinds means all.
func (r *Registry) FilterByKind(kinds ...Kind) []Site {
	if len(kinds) == 0 {
		return r.All()
	}
	r.mu.Lock()
	var out []Site
	for _, k := range kinds {
		for _, idx := range r.byKind[k] {
			out = append(out, r.sites[idx])
		}
	}
	r.mu.Unlock()
	sortSites(out)
	return out
}

// Len returns the number of registered sites.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sites)
}

func sortSites(sites []Site) {
	sort.SliceStable(sites, func(i, j int) bool {
		if sites[i].Path != sites[j].Path {
			return sites[i].Path < sites[j].Path
		}
		return sites[i].Directive.Span.Start < sites[j].Directive.Span.Start
	})
}
