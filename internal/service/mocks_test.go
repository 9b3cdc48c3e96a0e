package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/vporoshok/taskping/internal/domain"
	"github.com/vporoshok/taskping/internal/keygen"
	"github.com/vporoshok/taskping/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestKeys() *keygen.Generator {
	return keygen.NewGenerator(keygen.DefaultPrefix)
}

// memUserStore is an in-memory store.UserStore.
type memUserStore struct {
	users map[string]*domain.User

	// forcedErr, when set, is returned by every method.
	forcedErr error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*domain.User)}
}

func (m *memUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.forcedErr != nil {
		return m.forcedErr
	}
	for _, u := range m.users {
		if user.Username != nil && u.Username != nil && *u.Username == *user.Username {
			return store.ErrUsernameExists
		}
		if user.TelegramUserID != nil && u.TelegramUserID != nil && *u.TelegramUserID == *user.TelegramUserID {
			return store.ErrTelegramIDExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	for _, u := range m.users {
		if u.Username != nil && *u.Username == username && u.IsActive {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (m *memUserStore) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	for _, u := range m.users {
		if u.TelegramUserID != nil && *u.TelegramUserID == telegramID && u.IsActive {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (m *memUserStore) SetUsername(ctx context.Context, id, username string) error {
	if m.forcedErr != nil {
		return m.forcedErr
	}
	u, ok := m.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.Username = &username
	return nil
}

func (m *memUserStore) WithTx(tx *sql.Tx) store.UserStore { return m }

// memTaskStore is an in-memory store.TaskStore.
type memTaskStore struct {
	tasks map[string]*domain.Task
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: make(map[string]*domain.Task)}
}

func (m *memTaskStore) Create(ctx context.Context, task *domain.Task) error {
	cp := *task
	m.tasks[task.ID] = &cp
	return nil
}

func (m *memTaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTaskStore) ListForUser(ctx context.Context, userID string) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range m.tasks {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memTaskStore) Update(ctx context.Context, task *domain.Task) error {
	existing, ok := m.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	cp := *task
	cp.CreatedAt = existing.CreatedAt
	cp.DueNotifiedAt = existing.DueNotifiedAt
	m.tasks[task.ID] = &cp
	return nil
}

func (m *memTaskStore) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	t, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Status = status
	return nil
}

func (m *memTaskStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memTaskStore) FindDueUnnotified(ctx context.Context, now, windowEnd time.Time) ([]*domain.DueTask, error) {
	return nil, nil
}

func (m *memTaskStore) MarkNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	t, ok := m.tasks[id]
	if !ok {
		return false, store.ErrTaskNotFound
	}
	if t.DueNotifiedAt != nil {
		return false, nil
	}
	t.DueNotifiedAt = &at
	return true, nil
}

func (m *memTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return m }

// memCategoryStore is an in-memory store.CategoryStore.
type memCategoryStore struct {
	categories map[string]*domain.Category
}

func newMemCategoryStore() *memCategoryStore {
	return &memCategoryStore{categories: make(map[string]*domain.Category)}
}

func (m *memCategoryStore) slugTaken(ownerID *string, slug, excludeID string) bool {
	for _, c := range m.categories {
		if c.ID == excludeID || c.Slug != slug {
			continue
		}
		switch {
		case ownerID == nil && c.OwnerID == nil:
			return true
		case ownerID != nil && c.OwnerID != nil && *c.OwnerID == *ownerID:
			return true
		}
	}
	return false
}

func (m *memCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	if m.slugTaken(category.OwnerID, category.Slug, "") {
		return store.ErrCategorySlugExists
	}
	cp := *category
	m.categories[category.ID] = &cp
	return nil
}

func (m *memCategoryStore) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, store.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCategoryStore) ListVisible(ctx context.Context, ownerID *string) ([]*domain.Category, error) {
	var out []*domain.Category
	for _, c := range m.categories {
		if c.OwnerID == nil || (ownerID != nil && *c.OwnerID == *ownerID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memCategoryStore) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return store.ErrCategoryNotFound
	}
	if m.slugTaken(category.OwnerID, category.Slug, category.ID) {
		return store.ErrCategorySlugExists
	}
	cp := *category
	m.categories[category.ID] = &cp
	return nil
}

func (m *memCategoryStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.categories[id]; !ok {
		return store.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *memCategoryStore) EnsurePreset(ctx context.Context, id, name, slug string) error {
	for _, c := range m.categories {
		if c.OwnerID == nil && c.Slug == slug {
			c.Name = name
			return nil
		}
	}
	m.categories[id] = &domain.Category{ID: id, Name: name, Slug: slug}
	return nil
}

func (m *memCategoryStore) WithTx(tx *sql.Tx) store.CategoryStore { return m }
