package settle

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Entry is the engine's view of one live participant row.
type Entry struct {
	ID     string
	Name   string
	Amount decimal.Decimal
	IsHost bool
}

// Roster is the ordered set of live participants of one expense.
type Roster []Entry

// Find returns the entry with the given id.
func (r Roster) Find(id string) (Entry, bool) {
	if id == "" {
		return Entry{}, false
	}
	for _, e := range r {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Members returns the non-host entries in roster order.
func (r Roster) Members() Roster {
	members := make(Roster, 0, len(r))
	for _, e := range r {
		if !e.IsHost {
			members = append(members, e)
		}
	}
	return members
}

// Claimed sums the amounts of all non-host entries except excludeID.
func (r Roster) Claimed(excludeID string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range r {
		if e.IsHost || (excludeID != "" && e.ID == excludeID) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}

// NameTaken reports whether a non-host entry other than excludeID already
// uses name, compared case-insensitively.
func (r Roster) NameTaken(name, excludeID string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, e := range r {
		if e.IsHost || (excludeID != "" && e.ID == excludeID) {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(e.Name), name) {
			return true
		}
	}
	return false
}
