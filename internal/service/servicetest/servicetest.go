// Package servicetest holds in-memory stores for exercising services without
// MySQL, redis or SMTP.
package servicetest

import (
	"context"
	"encoding/json"
	"errors"
	"neet_tracker_backend/internal/model"
	"neet_tracker_backend/internal/repository"
	"neet_tracker_backend/pkg/mailer"
	"sort"
	"sync"

	"gorm.io/gorm"
)

type UserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[string]*model.User{}}
}

func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == "" {
		user.ID = model.GenerateUUID()
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// RecordStore mirrors TestRecordRepository ordering and per-user uniqueness.
// A non-nil FailErr makes Create fail with it.
type RecordStore struct {
	mu      sync.Mutex
	nextPK  uint
	records []*model.TestRecord
	FailErr error
}

func NewRecordStore() *RecordStore {
	return &RecordStore{}
}

func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *RecordStore) find(userID, recordID string) int {
	for i, r := range s.records {
		if r.UserID == userID && r.RecordID == recordID {
			return i
		}
	}
	return -1
}

func (s *RecordStore) Create(ctx context.Context, record *model.TestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailErr != nil {
		return s.FailErr
	}
	if s.find(record.UserID, record.RecordID) >= 0 {
		return gorm.ErrDuplicatedKey
	}
	s.nextPK++
	record.PK = s.nextPK
	cp := *record
	s.records = append(s.records, &cp)
	return nil
}

func (s *RecordStore) FindByRecordID(ctx context.Context, userID, recordID string) (*model.TestRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(userID, recordID)
	if i < 0 {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s.records[i]
	return &cp, nil
}

func (s *RecordStore) ExistsByRecordID(ctx context.Context, userID, recordID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(userID, recordID) >= 0, nil
}

func (s *RecordStore) ListByUser(ctx context.Context, userID string, filter repository.ListFilter) ([]model.TestRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TestRecord
	for _, r := range s.records {
		if r.UserID != userID {
			continue
		}
		if filter.Subject != "" && r.Subject != filter.Subject {
			continue
		}
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TakenAt.Equal(out[j].TakenAt) {
			return out[i].TakenAt.After(out[j].TakenAt)
		}
		return out[i].PK > out[j].PK
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *RecordStore) Save(ctx context.Context, record *model.TestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(record.UserID, record.RecordID)
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	cp := *record
	s.records[i] = &cp
	return nil
}

func (s *RecordStore) DeleteByRecordID(ctx context.Context, userID, recordID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(userID, recordID)
	if i < 0 {
		return false, nil
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return true, nil
}

func (s *RecordStore) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	var n int64
	for _, r := range s.records {
		if r.UserID == userID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return n, nil
}

func (s *RecordStore) SubjectRollup(ctx context.Context, userID string) ([]repository.SubjectRollup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bySubject := map[model.Subject]*repository.SubjectRollup{}
	for _, r := range s.records {
		if r.UserID != userID {
			continue
		}
		row, ok := bySubject[r.Subject]
		if !ok {
			row = &repository.SubjectRollup{Subject: r.Subject}
			bySubject[r.Subject] = row
		}
		row.Count++
		row.TotalScore += int64(r.Score)
		row.TotalQuestions += int64(r.QuestionCount)
	}
	rows := make([]repository.SubjectRollup, 0, len(bySubject))
	for _, row := range bySubject {
		row.AvgScore = float64(row.TotalScore) / float64(row.Count)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Subject < rows[j].Subject })
	return rows, nil
}

// Cache keeps JSON-encoded summaries like repository.StatsCache does.
type Cache struct {
	mu            sync.Mutex
	entries       map[string][]byte
	Invalidations int
}

func NewCache() *Cache {
	return &Cache{entries: map[string][]byte{}}
}

func (c *Cache) Has(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[userID]
	return ok
}

func (c *Cache) Get(ctx context.Context, userID string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[userID]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *Cache) Set(ctx context.Context, userID string, summary any) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = raw
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Invalidations++
	delete(c.entries, userID)
	return nil
}

// Sender records messages instead of delivering them. Set Err to simulate
// a transport failure.
type Sender struct {
	mu   sync.Mutex
	sent []mailer.Message
	Err  error
}

func (s *Sender) Send(ctx context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.sent = append(s.sent, msg)
	return nil
}

// Messages returns a copy of everything delivered so far.
func (s *Sender) Messages() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.sent...)
}

// ErrSMTPDown is a stand-in transport error.
var ErrSMTPDown = errors.New("dial tcp: connection refused")
