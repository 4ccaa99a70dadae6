package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepository keeps bookings in process memory. It is used when no
// database is configured and in tests.
type memoryRepository struct {
	mu    sync.RWMutex
	seq   int64
	store map[string]*memoryRecord
}

type memoryRecord struct {
	seq     int64
	booking Booking
}

func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]*memoryRecord)}
}

// clone returns a copy that shares no pointers with the stored record.
func clone(b *Booking) *Booking {
	out := *b
	if b.ScheduledDate != nil {
		d := *b.ScheduledDate
		out.ScheduledDate = &d
	}
	return &out
}

func (m *memoryRepository) Create(ctx context.Context, b *Booking) error {
	if !b.Status.Valid() {
		return ErrInvalidStatus
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b.ID = uuid.NewString()
	m.seq++
	m.store[b.ID] = &memoryRecord{seq: m.seq, booking: *clone(b)}
	return nil
}

func (m *memoryRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(&rec.booking), nil
}

func (m *memoryRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	normalizePage(&filter)

	m.mu.RLock()
	matched := make([]*memoryRecord, 0, len(m.store))
	for _, rec := range m.store {
		if filter.Status != "" && rec.booking.Status != filter.Status {
			continue
		}
		matched = append(matched, rec)
	}

	// newest first, insertion order breaks ties
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.booking.CreatedAt.Equal(b.booking.CreatedAt) {
			return a.booking.CreatedAt.After(b.booking.CreatedAt)
		}
		return a.seq > b.seq
	})

	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	end := start + filter.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	out := make([]*Booking, 0, end-start)
	for _, rec := range matched[start:end] {
		out = append(out, clone(&rec.booking))
	}
	m.mu.RUnlock()

	return out, total, nil
}

func (m *memoryRepository) Update(ctx context.Context, b *Booking) error {
	if !b.Status.Valid() {
		return ErrInvalidStatus
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.store[b.ID]
	if !ok {
		return ErrNotFound
	}

	// Intake fields and CreatedAt are immutable once stored.
	rec.booking.Status = b.Status
	rec.booking.Notes = b.Notes
	rec.booking.AssignedTo = b.AssignedTo
	rec.booking.UpdatedAt = b.UpdatedAt
	rec.booking.ScheduledDate = nil
	if b.ScheduledDate != nil {
		d := *b.ScheduledDate
		rec.booking.ScheduledDate = &d
	}
	return nil
}

func (m *memoryRepository) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

func (m *memoryRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[Status]int)
	for _, rec := range m.store {
		counts[rec.booking.Status]++
	}
	return counts, nil
}

func (m *memoryRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, rec := range m.store {
		c := rec.booking.CreatedAt
		if !c.Before(from) && c.Before(to) {
			n++
		}
	}
	return n, nil
}

func (m *memoryRepository) CountByServiceType(ctx context.Context) ([]ServiceTypeCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, rec := range m.store {
		counts[rec.booking.ServiceType]++
	}

	out := make([]ServiceTypeCount, 0, len(counts))
	for st, n := range counts {
		out = append(out, ServiceTypeCount{ServiceType: st, Count: n})
	}
	return out, nil
}
