// Package grid holds the keyword boards a user builds before topic
// synthesis: per-dimension keyword lists with lock and select state.
package grid

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"topicgrid/internal/prompt"
)

// ErrKeywordNotFound is returned by toggles for an id the dimension does not hold.
var ErrKeywordNotFound = errors.New("grid: keyword not found")

type Keyword struct {
	ID         string `json:"id"`
	Value      string `json:"value"`
	IsLocked   bool   `json:"isLocked"`
	IsSelected bool   `json:"isSelected"`
}

// Dimension is one keyword column. All methods are safe for concurrent use.
type Dimension struct {
	id    string
	newID func() string

	mu         sync.Mutex
	keywords   []Keyword
	locked     bool
	loading    bool
	errMsg     string
	generation uint64
}

func NewDimension(id string) *Dimension {
	return &Dimension{id: id, newID: uuid.NewString}
}

func (d *Dimension) ID() string { return d.id }

// Keywords returns a copy in display order.
func (d *Dimension) Keywords() []Keyword {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Keyword(nil), d.keywords...)
}

// LockedValues returns the values of locked keywords in display order.
func (d *Dimension) LockedValues() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lockedValuesLocked()
}

func (d *Dimension) lockedValuesLocked() []string {
	var out []string
	for _, k := range d.keywords {
		if k.IsLocked {
			out = append(out, k.Value)
		}
	}
	return out
}

// Merge replaces the unlocked keywords with values. Locked keywords keep
// their place at the front; values fill the rest up to eight. A value that
// is already on the board keeps its id and selection.
func (d *Dimension) Merge(values []string) []Keyword {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mergeLocked(values)
	return append([]Keyword(nil), d.keywords...)
}

func (d *Dimension) mergeLocked(values []string) {
	existing := make(map[string]Keyword, len(d.keywords))
	out := make([]Keyword, 0, prompt.KeywordsPerDimension)
	seen := make(map[string]struct{}, prompt.KeywordsPerDimension)
	for _, k := range d.keywords {
		if k.IsLocked {
			out = append(out, k)
			seen[k.Value] = struct{}{}
			continue
		}
		if _, dup := existing[k.Value]; !dup {
			existing[k.Value] = k
		}
	}

	for _, v := range values {
		if len(out) >= prompt.KeywordsPerDimension {
			break
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if k, ok := existing[v]; ok {
			out = append(out, k)
			continue
		}
		out = append(out, Keyword{ID: d.newID(), Value: v})
	}
	d.keywords = out
	d.errMsg = ""
}

// Begin starts a generation round and returns its number with the locked
// values to send along. Only the latest round may commit.
func (d *Dimension) Begin() (uint64, []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.generation++
	d.loading = true
	d.errMsg = ""
	return d.generation, d.lockedValuesLocked()
}

// Commit merges values if gen is still the latest round. Stale results are
// dropped and Commit reports false.
func (d *Dimension) Commit(gen uint64, values []string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		return false
	}
	d.loading = false
	d.mergeLocked(values)
	return true
}

// Fail records err for the latest round. Keywords are left untouched.
func (d *Dimension) Fail(gen uint64, err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		return false
	}
	d.loading = false
	if err != nil {
		d.errMsg = err.Error()
	}
	return true
}

func (d *Dimension) ToggleSelect(id string) (Keyword, error) {
	return d.toggle(id, func(k *Keyword) { k.IsSelected = !k.IsSelected })
}

func (d *Dimension) ToggleLock(id string) (Keyword, error) {
	return d.toggle(id, func(k *Keyword) { k.IsLocked = !k.IsLocked })
}

func (d *Dimension) toggle(id string, flip func(*Keyword)) (Keyword, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.keywords {
		if d.keywords[i].ID == id {
			flip(&d.keywords[i])
			return d.keywords[i], nil
		}
	}
	return Keyword{}, ErrKeywordNotFound
}

// Has reports whether the dimension holds keyword id.
func (d *Dimension) Has(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, k := range d.keywords {
		if k.ID == id {
			return true
		}
	}
	return false
}

// Selected returns the selected keywords in display order.
func (d *Dimension) Selected() []Keyword {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Keyword
	for _, k := range d.keywords {
		if k.IsSelected {
			out = append(out, k)
		}
	}
	return out
}

// SelectedValues is Selected reduced to values.
func (d *Dimension) SelectedValues() []string {
	sel := d.Selected()
	out := make([]string, len(sel))
	for i, k := range sel {
		out[i] = k.Value
	}
	return out
}

// Values returns every keyword value in display order.
func (d *Dimension) Values() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.keywords))
	for i, k := range d.keywords {
		out[i] = k.Value
	}
	return out
}

// Reset clears keywords and the error. In-flight rounds become stale.
func (d *Dimension) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keywords = nil
	d.errMsg = ""
	d.loading = false
	d.generation++
}

// Err is the last generation failure shown on the dimension, or "".
func (d *Dimension) Err() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errMsg
}

// SetLocked freezes the whole dimension; board-wide generation skips it.
func (d *Dimension) SetLocked(locked bool) {
	d.mu.Lock()
	d.locked = locked
	d.mu.Unlock()
}

func (d *Dimension) Locked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locked
}

// DimensionState is the JSON view of a dimension.
type DimensionState struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Keywords []Keyword `json:"keywords"`
	Locked   bool      `json:"locked"`
	Loading  bool      `json:"loading"`
	Error    string    `json:"error,omitempty"`
}

func (d *Dimension) Snapshot() DimensionState {
	d.mu.Lock()
	defer d.mu.Unlock()
	kw := append([]Keyword{}, d.keywords...)
	return DimensionState{ID: d.id, Keywords: kw, Locked: d.locked, Loading: d.loading, Error: d.errMsg}
}
