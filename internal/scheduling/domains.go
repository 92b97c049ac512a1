package scheduling

import (
	"sort"

	"agenda/pkg/sanitizer"
)

// ConflictDomains groups categories that share trainers or rooms and so must
// not overlap. A category outside every configured domain is its own domain.
type ConflictDomains struct {
	byCategory map[string]string
	members    map[string][]string
}

func NewConflictDomains(mapping map[string][]string) *ConflictDomains {
	d := &ConflictDomains{
		byCategory: make(map[string]string),
		members:    make(map[string][]string, len(mapping)),
	}
	for domain, categories := range mapping {
		for _, c := range categories {
			c = sanitizer.SanitizeCategory(c)
			d.byCategory[c] = domain
			d.members[domain] = append(d.members[domain], c)
		}
		sort.Strings(d.members[domain])
	}
	return d
}

// Domain returns the domain name of category.
func (d *ConflictDomains) Domain(category string) string {
	category = sanitizer.SanitizeCategory(category)
	if domain, ok := d.byCategory[category]; ok {
		return domain
	}
	return category
}

func (d *ConflictDomains) SameDomain(a, b string) bool {
	return d.Domain(a) == d.Domain(b)
}

// Peers lists every category that conflicts with category, itself included.
func (d *ConflictDomains) Peers(category string) []string {
	category = sanitizer.SanitizeCategory(category)
	domain, ok := d.byCategory[category]
	if !ok {
		return []string{category}
	}
	return append([]string(nil), d.members[domain]...)
}
