package record

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/brunoga/deep"
	"github.com/oklog/ulid/v2"

	"github.com/cognicore/cabin/pkg/cabin/filter"
	"github.com/cognicore/cabin/pkg/cabin/setting"
	"github.com/cognicore/cabin/pkg/cabin/store"
)

// Builder turns filter states into journal records with sortable ids
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates a new record builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Build snapshots state as a record taken at t. The record shares nothing
// with state.
func (b *Builder) Build(state *filter.State, t time.Time) store.Record {
	r := store.Record{
		ID:     b.newID(t),
		Time:   t,
		Intent: state.Intent,
		Stage:  state.Stage.String(),
	}

	if len(state.Entities) > 0 {
		r.Entities = make(map[string][]string, len(state.Entities))
		for kind, values := range state.Entities {
			r.Entities[string(kind)] = append([]string(nil), values...)
		}
	}
	if len(state.Changes) > 0 {
		r.Changes = deep.MustCopy(state.Changes)
	}
	if len(state.Statuses) > 0 {
		r.Statuses = deep.MustCopy(state.Statuses)
	}
	return r
}

// MonotonicEntropy is not safe for concurrent use.
func (b *Builder) newID(t time.Time) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), b.entropy).String()
}

// Pending returns the changes of r still waiting to be carried out.
func Pending(r store.Record) []setting.Change {
	var out []setting.Change
	for _, c := range r.Changes {
		if c.OperationStatus == setting.ToDo {
			out = append(out, c)
		}
	}
	return out
}
