package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/notification-service/internal/cache"
	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/realtime"
	"github.com/SAP-F-2025/notification-service/internal/repositories"
	"github.com/SAP-F-2025/notification-service/internal/services"
	"github.com/SAP-F-2025/notification-service/internal/utils"
	"github.com/SAP-F-2025/notification-service/internal/validator"
	"github.com/SAP-F-2025/notification-service/pkg/jwt"
)

const testSecret = "handler-test-secret-0123456789"

type fakeNotificationService struct {
	mu           sync.Mutex
	dispatched   []*services.DispatchRequest
	notifyErr    error
	markErr      error
	listFilters  repositories.NotificationFilters
	unreadCount  int64
	markedFor    string
	markedAllFor string
}

func (f *fakeNotificationService) Notify(ctx context.Context, req *services.DispatchRequest) (*services.DispatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifyErr != nil {
		return nil, f.notifyErr
	}
	f.dispatched = append(f.dispatched, req)
	result := &services.DispatchResult{Type: req.Type}
	for i, id := range req.UserIDs {
		result.Recipients = append(result.Recipients, &services.RecipientResult{UserID: id, AuditID: uint(i + 1)})
		result.Audited++
	}
	return result, nil
}

func (f *fakeNotificationService) List(ctx context.Context, userID string, filters repositories.NotificationFilters) (*services.NotificationListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	filters.UserID = userID
	f.listFilters = filters
	return &services.NotificationListResponse{Notifications: []*models.Notification{}, Limit: filters.Limit}, nil
}

func (f *fakeNotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return f.unreadCount, nil
}

func (f *fakeNotificationService) MarkAsRead(ctx context.Context, id uint, userID string) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return nil, f.markErr
	}
	f.markedFor = userID
	now := time.Now()
	return &models.Notification{ID: id, UserID: userID, IsRead: true, ReadAt: &now}, nil
}

func (f *fakeNotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedAllFor = userID
	return 4, nil
}

type fakePreferenceService struct {
	updateErr error
	resetFor  string
}

func (f *fakePreferenceService) List(ctx context.Context, userID string) ([]*models.NotificationPreference, error) {
	return []*models.NotificationPreference{
		{UserID: userID, Type: models.NotificationBadge, Channel: models.ChannelEmail, Enabled: false},
	}, nil
}

func (f *fakePreferenceService) Update(ctx context.Context, userID string, req *services.UpdatePreferencesRequest) ([]*models.NotificationPreference, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.List(ctx, userID)
}

func (f *fakePreferenceService) Effective(ctx context.Context, userID string, types []models.NotificationType) ([]*services.EffectivePreferences, error) {
	for _, t := range types {
		if !t.IsValid() {
			return nil, services.ErrInvalidNotificationType
		}
	}
	return []*services.EffectivePreferences{}, nil
}

func (f *fakePreferenceService) Reset(ctx context.Context, userID string) error {
	f.resetFor = userID
	return nil
}

type fakeUserService struct {
	users     map[string]*models.User
	createErr error
}

func (f *fakeUserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, services.ErrUserNotFound
}

func (f *fakeUserService) Create(ctx context.Context, req *services.CreateUserRequest) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.User{ID: req.ID, FullName: req.FullName, Email: req.Email, Role: req.Role}, nil
}

type fakeExportService struct{}

func (fakeExportService) ExportNotifications(ctx context.Context, req *services.ExportRequest) ([]byte, error) {
	return []byte("xlsx"), nil
}

type fakeServiceManager struct {
	notifications *fakeNotificationService
	preferences   *fakePreferenceService
	users         *fakeUserService
}

func (f *fakeServiceManager) Notification() services.NotificationService { return f.notifications }
func (f *fakeServiceManager) Preference() services.PreferenceService     { return f.preferences }
func (f *fakeServiceManager) User() services.UserService                 { return f.users }
func (f *fakeServiceManager) Export() services.ExportService             { return fakeExportService{} }
func (f *fakeServiceManager) Initialize(ctx context.Context) error       { return nil }
func (f *fakeServiceManager) HealthCheck(ctx context.Context) error      { return nil }
func (f *fakeServiceManager) Shutdown(ctx context.Context) error         { return nil }

// testServer wires the real router to fake services.
type testServer struct {
	router   *gin.Engine
	services *fakeServiceManager
	registry *realtime.Manager
	tokens   *jwt.Manager
}

func newTestServer(t *testing.T, limiter *cache.CacheHelper, rateLimit int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sm := &fakeServiceManager{
		notifications: &fakeNotificationService{},
		preferences:   &fakePreferenceService{},
		users: &fakeUserService{users: map[string]*models.User{
			"student-1": {ID: "student-1", FullName: "Sam", Email: "sam@example.com", Role: models.RoleStudent},
		}},
	}
	tokens := jwt.NewManager(testSecret, "test", time.Hour)
	registry := realtime.NewManager(nil)
	logger := utils.NopLogger()

	router := gin.New()
	SetupMiddleware(router, logger, nil)

	hm := NewHandlerManager(
		sm,
		validator.New(),
		logger,
		NewJWTVerifier(tokens),
		nil,
		registry,
		limiter,
		map[string]HealthCheckFunc{"database": func(ctx context.Context) error { return nil }},
		RouterConfig{
			MaxRecipients: 5,
			RateLimit:     rateLimit,
			RateWindow:    time.Minute,
			WriteTimeout:  time.Second,
			PongTimeout:   5 * time.Second,
		},
	)
	hm.SetupRoutes(router)

	return &testServer{router: router, services: sm, registry: registry, tokens: tokens}
}

func (s *testServer) token(t *testing.T, userID string, role models.UserRole) string {
	t.Helper()
	tok, err := s.tokens.GenerateToken(userID, string(role), userID+"@example.com")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
}
