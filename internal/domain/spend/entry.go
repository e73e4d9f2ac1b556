package spend

// Entry is a point-in-time view of one ledger accumulator.
// Entries are created lazily on the first recorded spend; an absent entry
// reads as a zero balance.
type Entry struct {
	key       Key
	total     float64
	updatedAt int64 // unix millis
}

// NewEntry creates an Entry snapshot.
func NewEntry(key Key, total float64, updatedAt int64) Entry {
	return Entry{key: key, total: total, updatedAt: updatedAt}
}

// Key returns the entry address.
func (e Entry) Key() Key { return e.key }

// Total returns the accumulated spend.
func (e Entry) Total() float64 { return e.total }

// UpdatedAt returns the last mutation timestamp (unix millis).
func (e Entry) UpdatedAt() int64 { return e.updatedAt }
