package product

import "strings"

// Filter selects products by category and a free-text term.
type Filter struct {
	Category Category
	Term     string
}

// Matches reports whether p passes the filter. The term is matched
// case-insensitively as a substring of the name or the code. An empty
// category behaves like CategoryAll.
func (f Filter) Matches(p Product) bool {
	if f.Category != "" && f.Category != CategoryAll && p.Category != f.Category {
		return false
	}
	term := strings.ToLower(f.Term)
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Code), term)
}

// Apply returns the products matching f, preserving input order.
func (f Filter) Apply(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}
