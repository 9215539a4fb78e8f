// Package memory provides an in-memory implementation of the store
// interfaces used by the handlers.  It backs the test suite and the
// STORE=memory development mode.  A single mutex serializes every
// mutation, which gives the same guarantee the MySQL layer gets from
// its conditional status UPDATE: two concurrent transitions from the
// same source status cannot both succeed.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/garbage-collection-service/internal/lifecycle"
	"github.com/iliyamo/garbage-collection-service/internal/model"
	"github.com/iliyamo/garbage-collection-service/internal/repository"
	"github.com/iliyamo/garbage-collection-service/internal/utils"
)

type refreshRow struct {
	userID    uint64
	expiresAt time.Time
	revoked   bool
}

// Store holds all state behind one mutex.  The Users, Tokens and
// Requests views expose the same method sets as the MySQL repositories
// so either backend can be wired into the handlers.
type Store struct {
	mu       sync.Mutex
	users    map[uint64]model.User
	requests map[uint64]model.Request
	history  map[uint64][]model.StatusHistoryEntry
	tokens   map[string]*refreshRow
	nextID   uint64
}

func NewStore() *Store {
	return &Store{
		users:    make(map[uint64]model.User),
		requests: make(map[uint64]model.Request),
		history:  make(map[uint64][]model.StatusHistoryEntry),
		tokens:   make(map[string]*refreshRow),
		nextID:   1,
	}
}

func (s *Store) Users() *UserStore       { return &UserStore{s} }
func (s *Store) Tokens() *TokenStore     { return &TokenStore{s} }
func (s *Store) Requests() *RequestStore { return &RequestStore{s} }

// allocID must be called with the mutex held.
func (s *Store) allocID() uint64 {
	id := s.nextID
	s.nextID++
	return id
}

// ----- users -----

type UserStore struct{ s *Store }

func (u *UserStore) Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if existing.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	now := time.Now().UTC()
	usr := model.User{
		ID:           u.s.allocID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	u.s.users[usr.ID] = usr
	return usr.ID, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, usr := range u.s.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (u *UserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	usr, ok := u.s.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return usr, nil
}

func (u *UserStore) List(ctx context.Context) ([]model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	out := make([]model.User, 0, len(u.s.users))
	for _, usr := range u.s.users {
		out = append(out, usr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (u *UserStore) Update(ctx context.Context, id uint64, name, email, role string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	usr, ok := u.s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	for _, other := range u.s.users {
		if other.ID != id && other.Email == email {
			return repository.ErrEmailExists
		}
	}
	usr.Name = name
	usr.Email = email
	usr.Role = role
	usr.UpdatedAt = time.Now().UTC()
	u.s.users[id] = usr
	return nil
}

func (u *UserStore) Delete(ctx context.Context, id uint64) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if _, ok := u.s.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(u.s.users, id)
	return nil
}

// ----- refresh tokens -----

type TokenStore struct{ s *Store }

func (t *TokenStore) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.tokens[tokenHash] = &refreshRow{userID: userID, expiresAt: exp}
	return nil
}

func (t *TokenStore) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	row, ok := t.s.tokens[tokenHash]
	if !ok || row.revoked || time.Now().UTC().After(row.expiresAt) {
		return 0, repository.ErrUserNotFound
	}
	return row.userID, nil
}

func (t *TokenStore) RevokeByHash(ctx context.Context, tokenHash string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if row, ok := t.s.tokens[tokenHash]; ok {
		row.revoked = true
	}
	return nil
}

func (t *TokenStore) RevokeAllForUser(ctx context.Context, userID uint64) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, row := range t.s.tokens {
		if row.userID == userID {
			row.revoked = true
		}
	}
	return nil
}

// ----- requests -----

type RequestStore struct{ s *Store }

func (r *RequestStore) Create(ctx context.Context, req *model.Request, note string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	req.ID = r.s.allocID()
	req.CreatedAt = now
	req.UpdatedAt = now
	r.s.requests[req.ID] = *req
	r.s.history[req.ID] = append(r.s.history[req.ID], model.StatusHistoryEntry{
		ID:        r.s.allocID(),
		RequestID: req.ID,
		Status:    req.Status,
		Note:      note,
		CreatedAt: now,
	})
	return nil
}

func (r *RequestStore) GetByID(ctx context.Context, id uint64) (*model.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, repository.ErrRequestNotFound
	}
	return &req, nil
}

func (r *RequestStore) ListByRole(ctx context.Context, role string, callerID uint64) ([]model.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Request, 0)
	for _, req := range r.s.requests {
		switch role {
		case lifecycle.RoleCitizen:
			if req.CitizenID != callerID {
				continue
			}
		case lifecycle.RoleWorker:
			if req.WorkerID == nil || *req.WorkerID != callerID {
				continue
			}
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := orderKey(out[i]), orderKey(out[j])
		if ki.Equal(kj) {
			return out[i].ID < out[j].ID
		}
		return ki.Before(kj)
	})
	return out, nil
}

func orderKey(r model.Request) time.Time {
	if r.PickupDate != nil {
		return *r.PickupDate
	}
	return r.CreatedAt
}

func (r *RequestStore) History(ctx context.Context, requestID uint64) ([]model.StatusHistoryEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entries := r.s.history[requestID]
	out := make([]model.StatusHistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (r *RequestStore) ApplyTransition(ctx context.Context, id uint64, up model.TransitionUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return repository.ErrRequestNotFound
	}
	if req.Status != up.From {
		return repository.ErrStatusChanged
	}
	now := time.Now().UTC()
	req.Status = up.To
	if up.WorkerID != nil {
		w := *up.WorkerID
		req.WorkerID = &w
	}
	if up.AdminNotes != nil {
		n := *up.AdminNotes
		req.AdminNotes = &n
	}
	req.UpdatedAt = now
	r.s.requests[id] = req
	for _, step := range up.Steps {
		r.s.history[id] = append(r.s.history[id], model.StatusHistoryEntry{
			ID:        r.s.allocID(),
			RequestID: id,
			Status:    step.Status,
			Note:      step.Note,
			CreatedAt: now,
		})
	}
	return nil
}

func (r *RequestStore) CountActiveByWorker(ctx context.Context, workerID uint64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, req := range r.s.requests {
		if req.WorkerID != nil && *req.WorkerID == workerID && !lifecycle.IsTerminal(req.Status) {
			n++
		}
	}
	return n, nil
}

func (r *RequestStore) WorkerStats(ctx context.Context, maxTasks int) ([]model.WorkerStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if maxTasks <= 0 {
		maxTasks = 10
	}
	out := make([]model.WorkerStats, 0)
	for _, u := range r.s.users {
		if u.Role != lifecycle.RoleWorker {
			continue
		}
		ws := model.WorkerStats{WorkerID: u.ID, Name: u.Name, Email: u.Email}
		for _, req := range r.s.requests {
			if req.WorkerID == nil || *req.WorkerID != u.ID {
				continue
			}
			switch req.Status {
			case lifecycle.StatusCollected, lifecycle.StatusCompleted:
				ws.CompletedAssignments++
			case lifecycle.StatusRejected:
				// terminal but not the worker's completion
			default:
				ws.ActiveAssignments++
			}
		}
		ws.WorkloadPercentage = (ws.ActiveAssignments*100 + maxTasks/2) / maxTasks
		out = append(out, ws)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out, nil
}

func (r *RequestStore) DashboardStats(ctx context.Context) (model.DashboardStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ds model.DashboardStats
	for _, req := range r.s.requests {
		ds.Total++
		switch req.Status {
		case lifecycle.StatusPending:
			ds.Pending++
		case lifecycle.StatusCollected:
			ds.Collected++
		case lifecycle.StatusReported:
			ds.Reported++
		case lifecycle.StatusInProgress:
			ds.InProgress++
		case lifecycle.StatusCompleted:
			ds.Completed++
		case lifecycle.StatusRejected:
			ds.Rejected++
		}
	}
	return ds, nil
}
