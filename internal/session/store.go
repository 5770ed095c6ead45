package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/dom/members-only/internal/domain"
	"github.com/dom/members-only/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Store persists scs session data through a SessionRepository. Rows are keyed
// by an HMAC of the cookie token so a leaked sessions table cannot be replayed
// as cookies.
type Store struct {
	repo   repository.SessionRepository
	secret []byte
	now    func() time.Time
}

func NewStore(repo repository.SessionRepository, secret string) *Store {
	return &Store{
		repo:   repo,
		secret: []byte(secret),
		now:    time.Now,
	}
}

// WithClock replaces the time source used for expiry checks.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) key(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Store) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	record, err := s.repo.Find(ctx, s.key(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !s.now().Before(record.Expiry) {
		return nil, false, nil
	}
	return record.Data, true, nil
}

func (s *Store) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error {
	return s.repo.Commit(ctx, &domain.SessionRecord{
		Token:  s.key(token),
		Data:   b,
		Expiry: expiry.UTC(),
	})
}

func (s *Store) DeleteCtx(ctx context.Context, token string) error {
	return s.repo.Delete(ctx, s.key(token))
}

func (s *Store) Find(token string) ([]byte, bool, error) {
	return s.FindCtx(context.Background(), token)
}

func (s *Store) Commit(token string, b []byte, expiry time.Time) error {
	return s.CommitCtx(context.Background(), token, b, expiry)
}

func (s *Store) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}

// PurgeExpired removes every session that has passed its expiry.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now().UTC())
}

// StartCleanup purges expired sessions every interval until ctx is done.
func (s *Store) StartCleanup(ctx context.Context, interval time.Duration, log *logrus.Logger) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.PurgeExpired(ctx)
				if err != nil {
					log.WithError(err).Warn("purge expired sessions")
					continue
				}
				if n > 0 {
					log.WithField("count", n).Debug("purged expired sessions")
				}
			}
		}
	}()
}
