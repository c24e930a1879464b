package attendance

import (
	"context"
	"sort"
	"sync"
	"time"
)

type RepositoryStub struct {
	mu          sync.RWMutex
	nextId      int
	internships map[int]Internship
	entries     []Entry
	leaves      []Leave
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		nextId:      1,
		internships: make(map[int]Internship),
	}
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextId = 1
	r.internships = make(map[int]Internship)
	r.entries = nil
	r.leaves = nil
}

func (r *RepositoryStub) GetInternship(ctx context.Context, internId int) (Internship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	internship, ok := r.internships[internId]
	if !ok {
		return Internship{}, ErrInternshipNotFound
	}
	return internship, nil
}

func (r *RepositoryStub) StoreInternship(ctx context.Context, internship Internship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.internships[internship.InternId] = internship
	return nil
}

func (r *RepositoryStub) GetEntries(ctx context.Context, internId int, from time.Time, to time.Time) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var entries []Entry
	for _, entry := range r.entries {
		if entry.InternId == internId && !entry.Date.Before(from) && entry.Date.Before(to) {
			entries = append(entries, entry)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].RecordedAt.Before(entries[j].RecordedAt)
	})
	return entries, nil
}

func (r *RepositoryStub) StoreEntry(ctx context.Context, entry Entry) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.Id = r.nextId
	r.nextId++
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *RepositoryStub) GetApprovedLeaves(ctx context.Context, internId int, from time.Time, to time.Time) ([]Leave, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var leaves []Leave
	for _, leave := range r.leaves {
		if leave.InternId == internId && leave.Status == LeaveApproved &&
			leave.StartDate.Before(to) && !leave.EndDate.Before(from) {
			leaves = append(leaves, leave)
		}
	}
	return leaves, nil
}

func (r *RepositoryStub) StoreLeave(ctx context.Context, leave Leave) (Leave, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	leave.Id = r.nextId
	r.nextId++
	r.leaves = append(r.leaves, leave)
	return leave, nil
}
