package cache

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"file-share-api/internal/domain/user"
	"file-share-api/internal/infrastructure/metrics"
)

// UserDirectory caches user lookups in front of the repository. Only hits are
// stored so a freshly registered recipient is never shadowed by a cached miss.
type UserDirectory struct {
	repo   user.Repository
	m      *metrics.Metrics
	byName *expirable.LRU[string, *user.User]
	byID   *expirable.LRU[user.UUID, *user.User]
}

func NewUserDirectory(repo user.Repository, m *metrics.Metrics, size int, ttl time.Duration) *UserDirectory {
	if size <= 0 {
		size = 1
	}

	return &UserDirectory{
		repo:   repo,
		m:      m,
		byName: expirable.NewLRU[string, *user.User](size, nil, ttl),
		byID:   expirable.NewLRU[user.UUID, *user.User](size, nil, ttl),
	}
}

func (d *UserDirectory) FindByUsername(ctx context.Context, userName string) (*user.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, nil
	}
	if u, ok := d.byName.Get(userName); ok {
		d.hit()
		return u, nil
	}
	d.miss()

	u, err := d.repo.FetchUserByUserName(ctx, userName)
	if err != nil || u == nil {
		return nil, err
	}
	d.store(u)

	return u, nil
}

func (d *UserDirectory) FindByID(ctx context.Context, id user.UUID) (*user.User, error) {
	if u, ok := d.byID.Get(id); ok {
		d.hit()
		return u, nil
	}
	d.miss()

	u, err := d.repo.FetchUserByID(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	d.store(u)

	return u, nil
}

func (d *UserDirectory) store(u *user.User) {
	d.byName.Add(u.UserName, u)
	d.byID.Add(u.UUID, u)
}

func (d *UserDirectory) hit() {
	if d.m != nil {
		d.m.UserCache.WithLabelValues("hit").Inc()
	}
}

func (d *UserDirectory) miss() {
	if d.m != nil {
		d.m.UserCache.WithLabelValues("miss").Inc()
	}
}
