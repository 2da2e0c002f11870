package registry

import (
	"context"
	"time"
)

// Snapshotter reads a point-in-time view of all present visitors, ordered by
// ascending ID so repeated runs over the same snapshot are reproducible. The
// snapshot is not transactionally isolated from concurrent writes; callers
// must tolerate staleness.
type Snapshotter interface {
	SnapshotPresent(ctx context.Context) ([]Visitor, error)
}

// Departer performs the conditional exit transition. TryDepart sets the
// check-out time only if the record is still present, as a single atomic
// update. It returns false (not an error) when another caller won the race.
type Departer interface {
	TryDepart(ctx context.Context, id int64, now time.Time) (bool, error)
}

// Inserter durably creates a new presence record as a single atomic insert.
// No duplicate check happens here; deciding "this person is already present"
// is the resolution engine's job.
type Inserter interface {
	Insert(ctx context.Context, v NewVisitor) (Visitor, error)
}

// Reader provides the lookup operations used by the admin views and the CLI.
type Reader interface {
	GetByFaceID(ctx context.Context, faceID string) (*Visitor, error)
	ListAll(ctx context.Context, limit, offset int) ([]Visitor, error)
	CountPresent(ctx context.Context) (int, error)
	CountAll(ctx context.Context) (int, error)
	// FindPresentByHost returns present visitors whose person_to_meet matches
	// the given name after normalization (case and diacritics insensitive).
	FindPresentByHost(ctx context.Context, hostName string) ([]Visitor, error)
}

// Store combines everything the service needs from the registry backend.
type Store interface {
	Snapshotter
	Departer
	Inserter
	Reader
}
