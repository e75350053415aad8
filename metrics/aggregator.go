package metrics

import (
	"sort"
	"time"
)

// Slot is the aggregate of one (api, name) pair over one time slot.
type Slot struct {
	API         API
	Name        string
	Total       int
	UniqueTotal int
	Start       time.Time
	End         time.Time

	origins map[string]struct{}
}

// Origins returns the distinct origins seen in the slot, sorted.
func (s *Slot) Origins() []string {
	out := make([]string, 0, len(s.origins))
	for o := range s.origins {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

type slotKey struct {
	api  API
	name string
}

// SlotBounds returns the slot that contains t: start is t rounded down to a
// multiple of size since the Unix epoch.
func SlotBounds(t time.Time, size time.Duration) (time.Time, time.Time) {
	secs := int64(size / time.Second)
	if secs < 1 {
		secs = 1
	}
	ts := t.Unix()
	start := time.Unix(ts-ts%secs, 0).UTC()
	return start, start.Add(time.Duration(secs) * time.Second)
}

// Aggregator folds events into slots. It is not safe for concurrent use; the
// Handler goroutine owns it.
type Aggregator struct {
	size    time.Duration
	slots   map[slotKey]*Slot
	history []Slot
}

// NewAggregator returns an Aggregator with the given slot size.
func NewAggregator(size time.Duration) *Aggregator {
	return &Aggregator{size: size, slots: make(map[slotKey]*Slot)}
}

// Add folds ev into its slot. An event past the end of an open slot for the
// same key closes every open slot first.
func (a *Aggregator) Add(ev Event) {
	key := slotKey{api: ev.API, name: ev.Name}
	if s, ok := a.slots[key]; ok {
		if ev.At.Before(s.End) {
			if _, seen := s.origins[ev.Origin]; !seen {
				s.origins[ev.Origin] = struct{}{}
				s.UniqueTotal++
			}
			s.Total++
			return
		}
		a.drain()
	}

	start, end := SlotBounds(ev.At, a.size)
	a.slots[key] = &Slot{
		API:         ev.API,
		Name:        ev.Name,
		Total:       1,
		UniqueTotal: 1,
		Start:       start,
		End:         end,
		origins:     map[string]struct{}{ev.Origin: {}},
	}
}

// Flush closes every open slot once any of them has ended at now.
func (a *Aggregator) Flush(now time.Time) {
	for _, s := range a.slots {
		if !now.Before(s.End) {
			a.drain()
			return
		}
	}
}

// FlushAll closes every open slot regardless of time.
func (a *Aggregator) FlushAll() {
	a.drain()
}

// Take returns and clears the closed slots, oldest first.
func (a *Aggregator) Take() []Slot {
	if len(a.history) == 0 {
		return nil
	}
	out := a.history
	a.history = nil
	return out
}

func (a *Aggregator) drain() {
	closed := make([]Slot, 0, len(a.slots))
	for k, s := range a.slots {
		closed = append(closed, *s)
		delete(a.slots, k)
	}
	sort.Slice(closed, func(i, j int) bool {
		if !closed[i].Start.Equal(closed[j].Start) {
			return closed[i].Start.Before(closed[j].Start)
		}
		if closed[i].API != closed[j].API {
			return closed[i].API < closed[j].API
		}
		return closed[i].Name < closed[j].Name
	})
	a.history = append(a.history, closed...)
}
