package ledger

import "strings"

// Header is the ledger's header row.
type Header []string

// Index returns the 1-based column of name.
func (h Header) Index(name string) (int, bool) {
	name = strings.TrimSpace(name)
	for i, col := range h {
		if strings.TrimSpace(col) == name {
			return i + 1, true
		}
	}
	return 0, false
}

// Missing lists the names absent from the header, in argument order.
func (h Header) Missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if _, ok := h.Index(n); !ok {
			out = append(out, n)
		}
	}
	return out
}
