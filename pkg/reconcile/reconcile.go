// Package reconcile merges two snapshots of one entity collection.
//
// Compute is a pure function of a local and a remote snapshot: it decides, per
// id, which side is stale and returns the operations that bring both sides to
// the same value. Apply executes a plan against real backends.
//
// Rules, for each remote entity r:
//   - r has no local counterpart: create it locally.
//   - r is newer: update the local copy with r.
//   - the local copy is newer: upload it.
//   - same timestamp, same content: nothing to do.
//   - same timestamp, different content: a conflict. Remote wins.
//
// Local entities the remote has never seen are uploaded last.
//
// The tie-break is deliberately asymmetric. This is not a CRDT merge.
package reconcile

import (
	"time"
)

// Entity is anything with a stable id and a last-modified time.
type Entity interface {
	SyncID() string
	LastModified() time.Time
}

// OpKind says which side an Op writes to and how.
type OpKind int

const (
	// LocalCreate inserts a remote-only entity into the local store.
	LocalCreate OpKind = iota
	// LocalUpdate overwrites a stale local copy with the remote one.
	LocalUpdate
	// RemoteCreate uploads a local-only entity.
	RemoteCreate
	// RemoteUpdate uploads a local copy that is newer than the remote one.
	RemoteUpdate
)

func (k OpKind) String() string {
	switch k {
	case LocalCreate:
		return "local_create"
	case LocalUpdate:
		return "local_update"
	case RemoteCreate:
		return "remote_create"
	case RemoteUpdate:
		return "remote_update"
	default:
		return "unknown"
	}
}

// Op is one write. Entity is the winning copy to write.
type Op[T Entity] struct {
	Kind   OpKind
	Entity T
	// Conflict marks a LocalUpdate produced by the tie-break. It counts as a
	// conflict, not as a synced entity.
	Conflict bool
}

// Plan is the full set of writes needed to converge one collection.
type Plan[T Entity] struct {
	Ops       []Op[T]
	Synced    int
	Conflicts int
}

// Empty reports whether the two snapshots had already converged.
func (p Plan[T]) Empty() bool { return len(p.Ops) == 0 }

// EqualFunc reports whether two copies of the same entity are identical in
// every field. It must be total and deterministic.
type EqualFunc[T Entity] func(a, b T) bool

// Compute builds the plan for one collection. Operation order is
// deterministic: remote snapshot order first, then local snapshot order for
// local-only entities. Counts do not depend on order.
func Compute[T Entity](local, remote []T, equal EqualFunc[T]) Plan[T] {
	localByID, localOrder := index(local)
	remoteByID, remoteOrder := index(remote)

	var plan Plan[T]
	for _, id := range remoteOrder {
		r := remoteByID[id]
		l, ok := localByID[id]
		if !ok {
			plan.add(Op[T]{Kind: LocalCreate, Entity: r})
			continue
		}
		delete(localByID, id)

		switch rt, lt := r.LastModified(), l.LastModified(); {
		case rt.After(lt):
			plan.add(Op[T]{Kind: LocalUpdate, Entity: r})
		case lt.After(rt):
			plan.add(Op[T]{Kind: RemoteUpdate, Entity: l})
		case !equal(l, r):
			plan.add(Op[T]{Kind: LocalUpdate, Entity: r, Conflict: true})
		}
	}

	for _, id := range localOrder {
		if l, ok := localByID[id]; ok {
			plan.add(Op[T]{Kind: RemoteCreate, Entity: l})
		}
	}
	return plan
}

func (p *Plan[T]) add(op Op[T]) {
	p.Ops = append(p.Ops, op)
	if op.Conflict {
		p.Conflicts++
	} else {
		p.Synced++
	}
}

// index keys a snapshot by id. If an id appears twice the copy with the
// later timestamp is kept, the first one on a tie.
func index[T Entity](items []T) (map[string]T, []string) {
	byID := make(map[string]T, len(items))
	order := make([]string, 0, len(items))
	for _, it := range items {
		id := it.SyncID()
		prev, seen := byID[id]
		if !seen {
			order = append(order, id)
			byID[id] = it
			continue
		}
		if it.LastModified().After(prev.LastModified()) {
			byID[id] = it
		}
	}
	return byID, order
}
