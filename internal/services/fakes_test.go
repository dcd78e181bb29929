package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/notification-service/internal/channels"
	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fakeStore is an in-memory Repository shared by the fake sub-repositories.
type fakeStore struct {
	mu            sync.Mutex
	users         map[string]*models.User
	notifications []*models.Notification
	prefs         []*models.NotificationPreference
	nextID        uint

	readOnlyUsers bool
	prefErr       error
	userErr       error
	// createErr fails audit writes for the given user ids.
	createErr map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[string]*models.User),
		createErr: make(map[string]error),
	}
}

func (s *fakeStore) addUser(id, email, phone string) {
	u := &models.User{ID: id, FullName: "User " + id, Email: email, Role: models.RoleStudent}
	if phone != "" {
		u.Phone = &phone
	}
	s.users[id] = u
}

func (s *fakeStore) addPref(userID string, t models.NotificationType, c models.Channel, enabled bool) {
	s.prefs = append(s.prefs, &models.NotificationPreference{UserID: userID, Type: t, Channel: c, Enabled: enabled})
}

func (s *fakeStore) auditRows() []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *fakeStore) User() repositories.UserRepository                 { return fakeUsers{s} }
func (s *fakeStore) Notification() repositories.NotificationRepository { return fakeNotifications{s} }
func (s *fakeStore) Preference() repositories.PreferenceRepository     { return fakePreferences{s} }

func (s *fakeStore) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	s.mu.Lock()
	snapshot := make([]*models.NotificationPreference, len(s.prefs))
	for i, p := range s.prefs {
		cp := *p
		snapshot[i] = &cp
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.prefs = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return nil }
func (s *fakeStore) Close() error                   { return nil }

type fakeUsers struct{ s *fakeStore }

func (f fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.userErr != nil {
		return nil, f.s.userErr
	}
	u, ok := f.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return u, nil
}

func (f fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeUsers) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if u, err := f.GetByID(ctx, id); err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f fakeUsers) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.User
	for _, u := range f.s.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (f fakeUsers) Search(ctx context.Context, query string, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return f.List(ctx, filters)
}

func (f fakeUsers) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := f.GetByID(ctx, id)
	return err == nil, nil
}

func (f fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f fakeUsers) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return u.Role == role, nil
}

func (f fakeUsers) Create(ctx context.Context, user *models.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.readOnlyUsers {
		return repositories.ErrReadOnly
	}
	if _, ok := f.s.users[user.ID]; ok {
		return repositories.ErrDuplicate
	}
	f.s.users[user.ID] = user
	return nil
}

type fakeNotifications struct{ s *fakeStore }

func (f fakeNotifications) Create(ctx context.Context, tx *gorm.DB, n *models.Notification) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.createErr[n.UserID]; err != nil {
		return err
	}
	f.s.nextID++
	n.ID = f.s.nextID
	n.CreatedAt = time.Now()
	f.s.notifications = append(f.s.notifications, n)
	return nil
}

func (f fakeNotifications) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Notification, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, n := range f.s.notifications {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeNotifications) match(n *models.Notification, filters repositories.NotificationFilters) bool {
	if filters.UserID != "" && n.UserID != filters.UserID {
		return false
	}
	if filters.UnreadOnly && n.IsRead {
		return false
	}
	if filters.Type != nil && n.Type != *filters.Type {
		return false
	}
	return true
}

func (f fakeNotifications) List(ctx context.Context, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var matched []*models.Notification
	for _, n := range f.s.notifications {
		if f.match(n, filters) {
			matched = append(matched, n)
		}
	}
	total := int64(len(matched))
	if filters.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filters.Offset:]
	if filters.Limit > 0 && len(matched) > filters.Limit {
		matched = matched[:filters.Limit]
	}
	return matched, total, nil
}

func (f fakeNotifications) CountUnread(ctx context.Context, userID string) (int64, error) {
	_, total, err := f.List(ctx, repositories.NotificationFilters{UserID: userID, UnreadOnly: true})
	return total, err
}

func (f fakeNotifications) MarkAsRead(ctx context.Context, tx *gorm.DB, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, n := range f.s.notifications {
		if n.ID == id {
			now := time.Now()
			n.IsRead = true
			n.ReadAt = &now
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f fakeNotifications) MarkAllAsRead(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var updated int64
	now := time.Now()
	for _, n := range f.s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
			updated++
		}
	}
	return updated, nil
}

func (f fakeNotifications) ListForExport(ctx context.Context, filters repositories.NotificationFilters, maxRows int) ([]*models.Notification, error) {
	filters.Limit, filters.Offset = 0, 0
	rows, _, err := f.List(ctx, filters)
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	return rows, err
}

type fakePreferences struct{ s *fakeStore }

func (f fakePreferences) ListByUser(ctx context.Context, userID string) ([]*models.NotificationPreference, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.prefErr != nil {
		return nil, f.s.prefErr
	}
	var out []*models.NotificationPreference
	for _, p := range f.s.prefs {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakePreferences) Get(ctx context.Context, userID string, t models.NotificationType, c models.Channel) (*models.NotificationPreference, error) {
	prefs, err := f.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, p := range prefs {
		if p.Type == t && p.Channel == c {
			return p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakePreferences) Upsert(ctx context.Context, tx *gorm.DB, pref *models.NotificationPreference) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.prefErr != nil {
		return f.s.prefErr
	}
	for _, p := range f.s.prefs {
		if p.UserID == pref.UserID && p.Type == pref.Type && p.Channel == pref.Channel {
			p.Enabled = pref.Enabled
			return nil
		}
	}
	cp := *pref
	f.s.prefs = append(f.s.prefs, &cp)
	return nil
}

func (f fakePreferences) DeleteByUser(ctx context.Context, tx *gorm.DB, userID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	kept := f.s.prefs[:0]
	for _, p := range f.s.prefs {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	f.s.prefs = kept
	return nil
}

// recordingSender is a channel backend that records every attempt.
type recordingSender struct {
	mu      sync.Mutex
	channel models.Channel
	sent    []channels.Recipient
	outcome channels.Outcome
	err     error
	panics  bool
}

func (r *recordingSender) Channel() models.Channel { return r.channel }

func (r *recordingSender) Send(ctx context.Context, to channels.Recipient, msg channels.Message) (channels.Outcome, error) {
	r.mu.Lock()
	r.sent = append(r.sent, to)
	r.mu.Unlock()
	if r.panics {
		panic("backend exploded")
	}
	return r.outcome, r.err
}

func (r *recordingSender) attempts() []channels.Recipient {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]channels.Recipient, len(r.sent))
	copy(out, r.sent)
	return out
}

var errBackend = errors.New("backend down")
