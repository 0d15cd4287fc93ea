package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/zenbeauty/salon-assistant/internal/model"
)

// Catalog is the read-only service -> specialists mapping. Lookups are
// case-insensitive and return empty results rather than errors on no match.
type Catalog struct {
	entries []model.CatalogEntry

	byService    map[string]model.CatalogEntry
	bySpecialist map[string]specialistEntry
}

type specialistEntry struct {
	name    string
	service model.Specialization
}

// Load reads the catalog from a JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}

	return c, nil
}

// Parse builds a catalog from raw JSON.
func Parse(data []byte) (*Catalog, error) {
	var entries []model.CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	c := &Catalog{
		entries:      entries,
		byService:    make(map[string]model.CatalogEntry, len(entries)),
		bySpecialist: make(map[string]specialistEntry),
	}

	for _, entry := range entries {
		c.byService[strings.ToLower(string(entry.Service))] = entry
		for _, sp := range entry.Specialists {
			c.bySpecialist[strings.ToLower(sp.Name)] = specialistEntry{name: sp.Name, service: entry.Service}
		}
	}

	return c, nil
}

// All returns every catalog entry in file order.
func (c *Catalog) All() []model.CatalogEntry {
	return c.entries
}

// SpecialistsFor returns the specialists providing the named service, or an
// empty slice when the service is unknown.
func (c *Catalog) SpecialistsFor(service string) []string {
	entry, ok := c.byService[strings.ToLower(strings.TrimSpace(service))]
	if !ok {
		return nil
	}

	names := make([]string, 0, len(entry.Specialists))
	for _, sp := range entry.Specialists {
		names = append(names, sp.Name)
	}

	return names
}

// ServiceFor returns the specialization the named specialist belongs to.
func (c *Catalog) ServiceFor(specialist string) (model.Specialization, bool) {
	e, ok := c.bySpecialist[strings.ToLower(strings.TrimSpace(specialist))]
	return e.service, ok
}

// ResolveSpecialist maps any casing or padding of a roster name to its
// canonical form. Store queries match exactly, so every slot operation must
// go through this rather than the raw user input.
func (c *Catalog) ResolveSpecialist(name string) (string, bool) {
	e, ok := c.bySpecialist[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return e.name, true
}

// ResolveService maps any casing of a service category to its canonical form.
func (c *Catalog) ResolveService(service string) (model.Specialization, bool) {
	entry, ok := c.byService[strings.ToLower(strings.TrimSpace(service))]
	if !ok {
		return "", false
	}
	return entry.Service, true
}

// KnownSpecialist reports whether the name is in the roster.
func (c *Catalog) KnownSpecialist(name string) bool {
	_, ok := c.bySpecialist[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// KnownService reports whether the service category exists.
func (c *Catalog) KnownService(service string) bool {
	_, ok := c.byService[strings.ToLower(strings.TrimSpace(service))]
	return ok
}

// Specialists returns the full roster in catalog order.
func (c *Catalog) Specialists() []string {
	var names []string
	for _, entry := range c.entries {
		for _, sp := range entry.Specialists {
			names = append(names, sp.Name)
		}
	}
	return names
}
