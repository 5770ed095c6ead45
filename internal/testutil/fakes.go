package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dom/members-only/internal/domain"
	"github.com/dom/members-only/internal/repository"
	"gorm.io/gorm"
)

// FakeUserRepository is an in-memory UserRepository that mimics the
// constraint and lookup errors GORM returns with TranslateError enabled.
type FakeUserRepository struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64

	// Err, when set, is returned by every method.
	Err error
	// Updates counts UpdateRoles calls that reached storage.
	Updates int
}

func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{users: make(map[int64]*domain.User)}
}

func (r *FakeUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}

	r.nextID++
	user.ID = r.nextID
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *FakeUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *u
	return &found, nil
}

func (r *FakeUserRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	for id := int64(1); id <= r.nextID; id++ {
		u, ok := r.users[id]
		if ok && (u.Username == identifier || u.Email == identifier) {
			found := *u
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *FakeUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}

	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *FakeUserRepository) UpdateRoles(ctx context.Context, id int64, isAdmin, isMember bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsAdmin = isAdmin
	u.IsMember = isMember || isAdmin
	u.UpdatedAt = time.Now()
	r.Updates++
	return nil
}

// Count returns the number of stored users.
func (r *FakeUserRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type FakeMessageRepository struct {
	mu       sync.Mutex
	messages map[int64]*domain.Message
	nextID   int64
	users    repository.UserRepository

	Err error
}

// NewFakeMessageRepository resolves message authors through users.
func NewFakeMessageRepository(users repository.UserRepository) *FakeMessageRepository {
	return &FakeMessageRepository{
		messages: make(map[int64]*domain.Message),
		users:    users,
	}
}

func (r *FakeMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	if _, err := r.users.GetByID(ctx, message.AuthorID); err != nil {
		return gorm.ErrForeignKeyViolated
	}

	r.nextID++
	message.ID = r.nextID
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	stored := *message
	stored.Author = nil
	r.messages[message.ID] = &stored
	return nil
}

func (r *FakeMessageRepository) ListNewestFirst(ctx context.Context) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	out := make([]*domain.Message, 0, len(r.messages))
	for _, m := range r.messages {
		msg := *m
		if author, err := r.users.GetByID(ctx, m.AuthorID); err == nil {
			msg.Author = author
		}
		out = append(out, &msg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *FakeMessageRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}

	if _, ok := r.messages[id]; !ok {
		return false, nil
	}
	delete(r.messages, id)
	return true, nil
}

// Count returns the number of stored messages.
func (r *FakeMessageRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

type FakeSessionRepository struct {
	mu      sync.Mutex
	records map[string]domain.SessionRecord

	Err error
}

func NewFakeSessionRepository() *FakeSessionRepository {
	return &FakeSessionRepository{records: make(map[string]domain.SessionRecord)}
}

func (r *FakeSessionRepository) Find(ctx context.Context, token string) (*domain.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	rec, ok := r.records[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &rec, nil
}

func (r *FakeSessionRepository) Commit(ctx context.Context, record *domain.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	r.records[record.Token] = *record
	return nil
}

func (r *FakeSessionRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	delete(r.records, token)
	return nil
}

func (r *FakeSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}

	var n int64
	for token, rec := range r.records {
		if !rec.Expiry.After(now) {
			delete(r.records, token)
			n++
		}
	}
	return n, nil
}

// Records returns a snapshot of every stored session.
func (r *FakeSessionRepository) Records() []domain.SessionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.SessionRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out
}

// FakeRepositories are in-memory repositories wired together.
type FakeRepositories struct {
	User    *FakeUserRepository
	Message *FakeMessageRepository
	Session *FakeSessionRepository
}

func NewFakeRepositories() *FakeRepositories {
	users := NewFakeUserRepository()
	return &FakeRepositories{
		User:    users,
		Message: NewFakeMessageRepository(users),
		Session: NewFakeSessionRepository(),
	}
}

func (f *FakeRepositories) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:    f.User,
		Message: f.Message,
		Session: f.Session,
	}
}
