// Package memstore is an in-memory implementation of the database stores.
// It honours the same contracts as the Postgres repositories: unique emails,
// guarded conditional updates, (nil, nil) on missing rows, and transactions
// that roll back every store on error.
package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wwtech/onboarding-backend/internal/database"
	"github.com/wwtech/onboarding-backend/internal/models"
)

// Store holds every collection behind one lock
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	candidates map[uuid.UUID]*models.Candidate
	accounts   map[uuid.UUID]*models.UserAccount
	requests   map[uuid.UUID]*models.JoiningRequest
	employees  map[uuid.UUID]*models.Employee
	sequences  map[string]int64
	audit      []*models.AuditLog
	auditSeq   int64

	faults map[string]error
}

// New creates an empty store
func New() *Store {
	return &Store{
		candidates: map[uuid.UUID]*models.Candidate{},
		accounts:   map[uuid.UUID]*models.UserAccount{},
		requests:   map[uuid.UUID]*models.JoiningRequest{},
		employees:  map[uuid.UUID]*models.Employee{},
		sequences:  map[string]int64{},
		faults:     map[string]error{},
	}
}

// Stores exposes the store through the repository interfaces
func (s *Store) Stores() *database.Stores {
	return &database.Stores{
		Candidates:      &candidateStore{s},
		Accounts:        &accountStore{s},
		JoiningRequests: &joiningRequestStore{s},
		Employees:       &employeeStore{s},
		Sequences:       &sequenceStore{s},
		Audit:           &auditStore{s},
		Tx:              s,
	}
}

// FailNext makes the next call of op (e.g. "JoiningRequests.Create") return err
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// fault must be called with mu held
func (s *Store) fault(op string) error {
	if err, ok := s.faults[op]; ok {
		delete(s.faults, op)
		return err
	}
	return nil
}

// WithinTx serializes transactions and restores a snapshot when fn fails
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

type txKey struct{}

type snapshot struct {
	candidates map[uuid.UUID]*models.Candidate
	accounts   map[uuid.UUID]*models.UserAccount
	requests   map[uuid.UUID]*models.JoiningRequest
	employees  map[uuid.UUID]*models.Employee
	sequences  map[string]int64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		candidates: make(map[uuid.UUID]*models.Candidate, len(s.candidates)),
		accounts:   make(map[uuid.UUID]*models.UserAccount, len(s.accounts)),
		requests:   make(map[uuid.UUID]*models.JoiningRequest, len(s.requests)),
		employees:  make(map[uuid.UUID]*models.Employee, len(s.employees)),
		sequences:  make(map[string]int64, len(s.sequences)),
	}
	for k, v := range s.candidates {
		snap.candidates[k] = copyCandidate(v)
	}
	for k, v := range s.accounts {
		c := *v
		snap.accounts[k] = &c
	}
	for k, v := range s.requests {
		snap.requests[k] = copyRequest(v)
	}
	for k, v := range s.employees {
		c := *v
		snap.employees[k] = &c
	}
	for k, v := range s.sequences {
		snap.sequences[k] = v
	}
	return snap
}

// audit rows are not part of the snapshot; they survive rollbacks like the Postgres table
func (s *Store) restore(snap snapshot) {
	s.candidates = snap.candidates
	s.accounts = snap.accounts
	s.requests = snap.requests
	s.employees = snap.employees
	s.sequences = snap.sequences
}

func copyCandidate(c *models.Candidate) *models.Candidate {
	cp := *c
	return &cp
}

func copyRequest(jr *models.JoiningRequest) *models.JoiningRequest {
	cp := *jr
	if jr.Experience != nil {
		cp.Experience = append(models.ExperienceList{}, jr.Experience...)
	}
	return &cp
}

type candidateStore struct{ s *Store }

func (c *candidateStore) Create(_ context.Context, cand *models.Candidate) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if err := c.s.fault("Candidates.Create"); err != nil {
		return err
	}
	for _, existing := range c.s.candidates {
		if strings.EqualFold(existing.Email, cand.Email) {
			return database.ErrDuplicate
		}
	}
	c.s.candidates[cand.ID] = copyCandidate(cand)
	return nil
}

func (c *candidateStore) GetByID(_ context.Context, id uuid.UUID) (*models.Candidate, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if err := c.s.fault("Candidates.GetByID"); err != nil {
		return nil, err
	}
	if cand, ok := c.s.candidates[id]; ok {
		return copyCandidate(cand), nil
	}
	return nil, nil
}

func (c *candidateStore) GetByOfferTokenHash(_ context.Context, hash string) (*models.Candidate, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for _, cand := range c.s.candidates {
		if cand.OfferTokenHash.Valid && cand.OfferTokenHash.String == hash {
			return copyCandidate(cand), nil
		}
	}
	return nil, nil
}

func (c *candidateStore) List(_ context.Context) ([]*models.Candidate, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := make([]*models.Candidate, 0, len(c.s.candidates))
	for _, cand := range c.s.candidates {
		out = append(out, copyCandidate(cand))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (c *candidateStore) MarkOfferSent(_ context.Context, id uuid.UUID, tokenHash string, expiry time.Time, document models.NullString, at time.Time) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if err := c.s.fault("Candidates.MarkOfferSent"); err != nil {
		return false, err
	}
	cand, ok := c.s.candidates[id]
	if !ok || cand.OfferSent {
		return false, nil
	}
	cand.OfferSent = true
	cand.OfferSentAt = models.NewNullTime(at)
	cand.OfferTokenHash = models.NewNullString(tokenHash)
	cand.OfferTokenExpiry = models.NewNullTime(expiry)
	if document.Valid {
		cand.OfferDocument = document
	}
	cand.UpdatedAt = at
	return true, nil
}

func (c *candidateStore) MarkOfferAccepted(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cand, ok := c.s.candidates[id]
	if !ok || !cand.OfferSent || cand.OfferAccepted {
		return false, nil
	}
	cand.OfferAccepted = true
	cand.OfferAcceptedAt = models.NewNullTime(at)
	cand.UpdatedAt = at
	return true, nil
}

func (c *candidateStore) MarkJoiningDetailsSent(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if err := c.s.fault("Candidates.MarkJoiningDetailsSent"); err != nil {
		return false, err
	}
	cand, ok := c.s.candidates[id]
	if !ok || !cand.OfferAccepted || cand.JoiningDetailsSent {
		return false, nil
	}
	cand.JoiningDetailsSent = true
	cand.JoiningDetailsSentAt = models.NewNullTime(at)
	cand.UpdatedAt = at
	return true, nil
}

func (c *candidateStore) ClearExpiredOfferTokens(_ context.Context, now time.Time) (int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var n int64
	for _, cand := range c.s.candidates {
		if cand.OfferTokenHash.Valid && cand.OfferTokenExpiry.Valid && !cand.OfferTokenExpiry.Time.After(now) {
			cand.OfferTokenHash = models.NullString{}
			cand.OfferTokenExpiry = models.NullTime{}
			cand.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (c *candidateStore) Count(_ context.Context) (int, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if err := c.s.fault("Candidates.Count"); err != nil {
		return 0, err
	}
	return len(c.s.candidates), nil
}

func (c *candidateStore) CountOffersAccepted(_ context.Context) (int, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	n := 0
	for _, cand := range c.s.candidates {
		if cand.OfferAccepted {
			n++
		}
	}
	return n, nil
}

type accountStore struct{ s *Store }

func (a *accountStore) Create(_ context.Context, u *models.UserAccount) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.fault("Accounts.Create"); err != nil {
		return err
	}
	for _, existing := range a.s.accounts {
		if strings.EqualFold(existing.Email, u.Email) {
			return database.ErrDuplicate
		}
	}
	cp := *u
	a.s.accounts[u.ID] = &cp
	return nil
}

func (a *accountStore) GetByID(_ context.Context, id uuid.UUID) (*models.UserAccount, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if u, ok := a.s.accounts[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (a *accountStore) GetByEmail(_ context.Context, email string) (*models.UserAccount, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	for _, u := range a.s.accounts {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (a *accountStore) Activate(_ context.Context, id uuid.UUID, passwordHash, employeeID string, at time.Time) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.fault("Accounts.Activate"); err != nil {
		return err
	}
	u, ok := a.s.accounts[id]
	if !ok {
		return errors.New("user account not found")
	}
	u.PasswordHash = passwordHash
	u.EmployeeID = models.NewNullString(employeeID)
	u.IsActive = true
	u.UpdatedAt = at
	return nil
}

func (a *accountStore) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if u, ok := a.s.accounts[id]; ok {
		u.LastLoginAt = models.NewNullTime(at)
	}
	return nil
}

type joiningRequestStore struct{ s *Store }

func (j *joiningRequestStore) Create(_ context.Context, jr *models.JoiningRequest) error {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	if err := j.s.fault("JoiningRequests.Create"); err != nil {
		return err
	}
	for _, existing := range j.s.requests {
		if existing.CandidateID == jr.CandidateID || strings.EqualFold(existing.Email, jr.Email) {
			return database.ErrDuplicate
		}
	}
	j.s.requests[jr.ID] = copyRequest(jr)
	return nil
}

func (j *joiningRequestStore) GetByID(_ context.Context, id uuid.UUID) (*models.JoiningRequest, error) {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	if jr, ok := j.s.requests[id]; ok {
		cp := copyRequest(jr)
		cp.Normalize()
		return cp, nil
	}
	return nil, nil
}

func (j *joiningRequestStore) GetByEmail(_ context.Context, email string) (*models.JoiningRequest, error) {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	for _, jr := range j.s.requests {
		if strings.EqualFold(jr.Email, email) {
			cp := copyRequest(jr)
			cp.Normalize()
			return cp, nil
		}
	}
	return nil, nil
}

func (j *joiningRequestStore) List(_ context.Context, status models.JoiningStatus) ([]*models.JoiningRequest, error) {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	out := []*models.JoiningRequest{}
	for _, jr := range j.s.requests {
		if status != "" && jr.Status != status {
			continue
		}
		cp := copyRequest(jr)
		cp.Normalize()
		out = append(out, cp)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (j *joiningRequestStore) Save(_ context.Context, jr *models.JoiningRequest, expected models.JoiningStatus) (bool, error) {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	if err := j.s.fault("JoiningRequests.Save"); err != nil {
		return false, err
	}
	stored, ok := j.s.requests[jr.ID]
	if !ok || stored.Status != expected {
		return false, nil
	}
	j.s.requests[jr.ID] = copyRequest(jr)
	return true, nil
}

func (j *joiningRequestStore) CountByStatus(_ context.Context, status models.JoiningStatus) (int, error) {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	n := 0
	for _, jr := range j.s.requests {
		if jr.Status == status {
			n++
		}
	}
	return n, nil
}

// PutJoiningRequest stores jr verbatim, bypassing normalization. Used to seed legacy records.
func (s *Store) PutJoiningRequest(jr *models.JoiningRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[jr.ID] = copyRequest(jr)
}

// RawJoiningRequest returns the stored record without normalization
func (s *Store) RawJoiningRequest(id uuid.UUID) *models.JoiningRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if jr, ok := s.requests[id]; ok {
		return copyRequest(jr)
	}
	return nil
}

type employeeStore struct{ s *Store }

func (e *employeeStore) Create(_ context.Context, emp *models.Employee) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if err := e.s.fault("Employees.Create"); err != nil {
		return err
	}
	for _, existing := range e.s.employees {
		if existing.EmployeeID == emp.EmployeeID ||
			existing.JoiningRequestID == emp.JoiningRequestID ||
			strings.EqualFold(existing.Email, emp.Email) {
			return database.ErrDuplicate
		}
	}
	cp := *emp
	e.s.employees[emp.ID] = &cp
	return nil
}

func (e *employeeStore) List(_ context.Context) ([]*models.Employee, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	out := make([]*models.Employee, 0, len(e.s.employees))
	for _, emp := range e.s.employees {
		cp := *emp
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (e *employeeStore) Count(_ context.Context) (int, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	return len(e.s.employees), nil
}

func (e *employeeStore) ListActiveEmails(_ context.Context, exclude string) ([]string, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	active := []*models.Employee{}
	for _, emp := range e.s.employees {
		if emp.IsActive && !strings.EqualFold(emp.Email, exclude) {
			active = append(active, emp)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].EmployeeID < active[j].EmployeeID })
	emails := make([]string, 0, len(active))
	for _, emp := range active {
		emails = append(emails, emp.Email)
	}
	return emails, nil
}

type sequenceStore struct{ s *Store }

func (q *sequenceStore) Next(_ context.Context, name string) (int64, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	q.s.sequences[name]++
	return q.s.sequences[name], nil
}

type auditStore struct{ s *Store }

func (a *auditStore) Create(_ context.Context, entry *models.AuditLog) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.fault("Audit.Create"); err != nil {
		return err
	}
	a.s.auditSeq++
	entry.ID = a.s.auditSeq
	cp := *entry
	a.s.audit = append(a.s.audit, &cp)
	return nil
}

func (a *auditStore) ListByEntity(_ context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	out := []*models.AuditLog{}
	for i := len(a.s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		entry := a.s.audit[i]
		if entry.EntityType.String == entityType && entry.EntityID.Valid && entry.EntityID.UUID == entityID {
			cp := *entry
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (a *auditStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	kept := a.s.audit[:0]
	var n int64
	for _, entry := range a.s.audit {
		if entry.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, entry)
	}
	a.s.audit = kept
	return n, nil
}

// AuditActions returns every recorded audit action in insertion order
func (s *Store) AuditActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]string, 0, len(s.audit))
	for _, entry := range s.audit {
		actions = append(actions, entry.Action)
	}
	return actions
}

var (
	_ database.CandidateStore      = (*candidateStore)(nil)
	_ database.UserAccountStore    = (*accountStore)(nil)
	_ database.JoiningRequestStore = (*joiningRequestStore)(nil)
	_ database.EmployeeStore       = (*employeeStore)(nil)
	_ database.SequenceStore       = (*sequenceStore)(nil)
	_ database.AuditStore          = (*auditStore)(nil)
	_ database.Transactor          = (*Store)(nil)
)
