package postgres

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/notification-service/internal/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage clamps limit and offset to sane values.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// translateError maps gorm errors to repository sentinels.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repositories.ErrDuplicate
	default:
		return err
	}
}

// applyNotificationFilters applies common filters to notification queries
func applyNotificationFilters(query *gorm.DB, filters repositories.NotificationFilters) *gorm.DB {
	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func applyUserFilters(query *gorm.DB, filters repositories.UserFilters) *gorm.DB {
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("full_name ILIKE ? OR email ILIKE ?", like, like)
	}
	return query
}

// commitHooks defers cache invalidation until the surrounding transaction
// commits. Invalidating earlier lets a concurrent reader cache the
// pre-commit rows again. A nil *commitHooks runs work immediately.
type commitHooks struct {
	mu  sync.Mutex
	fns []func(context.Context)
}

func (h *commitHooks) run(ctx context.Context, fn func(context.Context)) {
	if h == nil {
		fn(ctx)
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

// flush runs the deferred work once. Call it only after a successful commit.
func (h *commitHooks) flush(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
}
