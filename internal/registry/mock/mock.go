// Package mock provides an in-memory registry implementation for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/i-m-alive/Visitor-Log-Book/internal/facematch"
	"github.com/i-m-alive/Visitor-Log-Book/internal/registry"
)

// Store is an in-memory implementation of registry.Store. TryDepart and
// Insert are atomic under the mutex, which makes the mock valid for
// concurrency tests of the resolution engine.
type Store struct {
	mu       sync.Mutex
	visitors map[int64]*registry.Visitor
	nextID   int64

	// Error injection
	SnapshotError error
	DepartError   error
	InsertError   error
	ReadError     error

	// ForceDepartLost makes every TryDepart report a lost race.
	ForceDepartLost bool
}

// NewStore creates an empty in-memory registry.
func NewStore() *Store {
	return &Store{
		visitors: make(map[int64]*registry.Visitor),
		nextID:   1,
	}
}

// Seed inserts a visitor directly, bypassing error injection. Returns the
// stored record.
func (s *Store) Seed(v registry.NewVisitor) registry.Visitor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(v)
}

func (s *Store) insertLocked(v registry.NewVisitor) registry.Visitor {
	id := s.nextID
	s.nextID++

	stored := &registry.Visitor{
		ID:             id,
		FaceID:         v.FaceID,
		Embedding:      append([]float32(nil), v.Embedding...),
		VisitorDetails: v.Details,
		PhotoURL:       v.PhotoURL,
		CheckInTime:    v.CheckInTime,
	}
	s.visitors[id] = stored
	return *stored
}

// SnapshotPresent returns all present visitors ordered by ascending ID.
func (s *Store) SnapshotPresent(ctx context.Context) ([]registry.Visitor, error) {
	if s.SnapshotError != nil {
		return nil, s.SnapshotError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []registry.Visitor
	for _, v := range s.visitors {
		if v.IsPresent() {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// TryDepart atomically sets the check-out time if the record is still present.
func (s *Store) TryDepart(ctx context.Context, id int64, now time.Time) (bool, error) {
	if s.DepartError != nil {
		return false, s.DepartError
	}
	if s.ForceDepartLost {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[id]
	if !ok || !v.IsPresent() {
		return false, nil
	}
	t := now
	v.CheckOutTime = &t
	return true, nil
}

// Insert stores a new visitor record.
func (s *Store) Insert(ctx context.Context, v registry.NewVisitor) (registry.Visitor, error) {
	if s.InsertError != nil {
		return registry.Visitor{}, s.InsertError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(v), nil
}

// GetByFaceID returns the visitor with the given face ID, or nil.
func (s *Store) GetByFaceID(ctx context.Context, faceID string) (*registry.Visitor, error) {
	if s.ReadError != nil {
		return nil, s.ReadError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.visitors {
		if v.FaceID == faceID {
			copied := *v
			return &copied, nil
		}
	}
	return nil, nil
}

// ListAll returns all visitors ordered by ascending ID.
func (s *Store) ListAll(ctx context.Context, limit, offset int) ([]registry.Visitor, error) {
	if s.ReadError != nil {
		return nil, s.ReadError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]registry.Visitor, 0, len(s.visitors))
	for _, v := range s.visitors {
		all = append(all, *v)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// CountPresent returns the number of present visitors.
func (s *Store) CountPresent(ctx context.Context) (int, error) {
	if s.ReadError != nil {
		return 0, s.ReadError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, v := range s.visitors {
		if v.IsPresent() {
			count++
		}
	}
	return count, nil
}

// CountAll returns the total number of records.
func (s *Store) CountAll(ctx context.Context) (int, error) {
	if s.ReadError != nil {
		return 0, s.ReadError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors), nil
}

// FindPresentByHost returns present visitors for a host, matched on the
// normalized person_to_meet name.
func (s *Store) FindPresentByHost(ctx context.Context, hostName string) ([]registry.Visitor, error) {
	if s.ReadError != nil {
		return nil, s.ReadError
	}
	normalized := facematch.NormalizePersonName(hostName)

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []registry.Visitor
	for _, v := range s.visitors {
		if v.IsPresent() && facematch.NormalizePersonName(v.PersonToMeet) == normalized {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
