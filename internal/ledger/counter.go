package ledger

import "time"

// Counters are the monthly sequence numbers of a contract about to be registered.
type Counters struct {
	Office int
	Person int
}

// Count derives the counters from the full ledger. Rows of any status count,
// including cancelled ones; rows with an unreadable date do not.
func Count(rows []Row, person, office string, now time.Time) Counters {
	y, m, _ := now.Date()
	var c Counters
	for _, r := range rows {
		if r.Salesperson != person || r.Date.IsZero() {
			continue
		}
		ry, rm, _ := r.Date.Date()
		if ry != y || rm != m {
			continue
		}
		c.Person++
		if r.Office == office {
			c.Office++
		}
	}
	c.Person++
	c.Office++
	return c
}
