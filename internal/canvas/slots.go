package canvas

// Table identifies one of the two row slot tables.
type Table int

const (
	// TableFlying holds rows for horizontally moving comments.
	TableFlying Table = iota
	// TableStatic holds rows for centered, non-moving comments.
	TableStatic
)

// String returns the table name.
func (t Table) String() string {
	switch t {
	case TableFlying:
		return "flying"
	case TableStatic:
		return "static"
	default:
		return "unknown"
	}
}

// SlotTable is a fixed-size occupancy record, one entry per screen row.
type SlotTable struct {
	slots []bool
}

// NewSlotTable creates a table with n free rows. Negative sizes are treated as zero.
func NewSlotTable(n int) *SlotTable {
	if n < 0 {
		n = 0
	}
	return &SlotTable{slots: make([]bool, n)}
}

// Len returns the number of rows. It never changes.
func (t *SlotTable) Len() int {
	return len(t.slots)
}

// Occupied reports whether row i is held. Out-of-range rows report false.
func (t *SlotTable) Occupied(i int) bool {
	return t.inRange(i) && t.slots[i]
}

// Used returns the number of held rows.
func (t *SlotTable) Used() int {
	n := 0
	for _, used := range t.slots {
		if used {
			n++
		}
	}
	return n
}

// TryAcquire marks row i held if it is free.
func (t *SlotTable) TryAcquire(i int) bool {
	if !t.inRange(i) || t.slots[i] {
		return false
	}
	t.slots[i] = true
	return true
}

// Release marks row i free. It reports whether the row was held.
func (t *SlotTable) Release(i int) bool {
	if !t.inRange(i) || !t.slots[i] {
		return false
	}
	t.slots[i] = false
	return true
}

// FirstFree returns the lowest free row, or -1.
func (t *SlotTable) FirstFree() int {
	for i, used := range t.slots {
		if !used {
			return i
		}
	}
	return -1
}

// LastFree returns the highest free row, or -1.
func (t *SlotTable) LastFree() int {
	for i := len(t.slots) - 1; i >= 0; i-- {
		if !t.slots[i] {
			return i
		}
	}
	return -1
}

// Snapshot returns a copy of the occupancy flags.
func (t *SlotTable) Snapshot() []bool {
	out := make([]bool, len(t.slots))
	copy(out, t.slots)
	return out
}

func (t *SlotTable) inRange(i int) bool {
	return i >= 0 && i < len(t.slots)
}
