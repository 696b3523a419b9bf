package registry

import (
	"errors"

	"github.com/junioryono/inject/internal/reflection"
)

// Kind is the recipe a record uses to produce its value.
type Kind int

const (
	// Value records hold a fixed instance.
	Value Kind = iota

	// Factory records call a function with resolved dependencies.
	Factory

	// Class records allocate a struct and assign resolved dependencies to its fields.
	Class

	// Existing records alias another key.
	Existing
)

// ErrMultiMismatch is returned by Add when a key mixes multi and single records.
var ErrMultiMismatch = errors.New("multi and single providers mixed for the same key")

// Record is one normalized provider.
type Record struct {
	// Key is what the record provides. Keys must be comparable.
	Key any

	Kind Kind

	// Value is the instance for Value records.
	Value any

	// Func is the analyzed function for Factory records.
	Func *reflection.Func

	// Class is the analyzed struct for Class records.
	Class *reflection.Class

	// Target is the aliased key for Existing records.
	Target any

	// Deps are the dependency keys, in parameter or field order.
	Deps []any

	Multi bool
}

// Entry holds the records registered for one key. Single entries hold
// exactly one record.
type Entry struct {
	Multi   bool
	Records []*Record
}

// Record returns the winning record of a single entry.
func (e *Entry) Record() *Record {
	if len(e.Records) == 0 {
		return nil
	}
	return e.Records[len(e.Records)-1]
}

// Registry maps keys to entries. A registry is built once and read
// concurrently afterwards, so it carries no lock.
type Registry struct {
	entries map[any]*Entry
	keys    []any
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[any]*Entry)}
}

// Add appends rec to the entry for rec.Key. A later single record replaces
// an earlier one; multi records accumulate in order.
func (r *Registry) Add(rec *Record) error {
	entry, ok := r.entries[rec.Key]
	if !ok {
		r.entries[rec.Key] = &Entry{Multi: rec.Multi, Records: []*Record{rec}}
		r.keys = append(r.keys, rec.Key)
		return nil
	}

	if entry.Multi != rec.Multi {
		return ErrMultiMismatch
	}

	if rec.Multi {
		entry.Records = append(entry.Records, rec)
	} else {
		entry.Records = []*Record{rec}
	}
	return nil
}

// Lookup returns the local entry for key without consulting any parent.
func (r *Registry) Lookup(key any) (*Entry, bool) {
	entry, ok := r.entries[key]
	return entry, ok
}

// Keys returns registered keys in first-registration order.
func (r *Registry) Keys() []any {
	return append([]any(nil), r.keys...)
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	return len(r.keys)
}
