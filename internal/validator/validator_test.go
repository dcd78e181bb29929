package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/SAP-F-2025/notification-service/internal/models"
)

func boolPtr(b bool) *bool { return &b }

func TestValidateDispatch(t *testing.T) {
	bv := NewBusinessValidator()

	valid := func() *DispatchRequest {
		return &DispatchRequest{
			UserIDs: []string{"7"},
			Subject: "New badge",
			Message: "You earned a badge",
			Type:    models.NotificationBadge,
		}
	}

	tests := []struct {
		name      string
		mutate    func(r *DispatchRequest)
		max       int
		wantField string
	}{
		{name: "valid", mutate: func(r *DispatchRequest) {}},
		{name: "valid with channels", mutate: func(r *DispatchRequest) {
			r.Channels = []models.Channel{models.ChannelEmail, models.ChannelSMS}
		}},
		{name: "no users", mutate: func(r *DispatchRequest) { r.UserIDs = nil }, wantField: "UserIDs"},
		{name: "empty user id", mutate: func(r *DispatchRequest) { r.UserIDs = []string{""} }, wantField: "UserIDs[0]"},
		{name: "blank subject", mutate: func(r *DispatchRequest) { r.Subject = "   " }, wantField: "Subject"},
		{name: "long message", mutate: func(r *DispatchRequest) { r.Message = strings.Repeat("x", 5001) }, wantField: "Message"},
		{name: "unknown type", mutate: func(r *DispatchRequest) { r.Type = "bagde" }, wantField: "Type"},
		{name: "unknown channel", mutate: func(r *DispatchRequest) { r.Channels = []models.Channel{"pigeon"} }, wantField: "Channels[0]"},
		{name: "duplicate channel", mutate: func(r *DispatchRequest) {
			r.Channels = []models.Channel{models.ChannelEmail, models.ChannelEmail}
		}, wantField: "channels[1]"},
		{name: "too many users", mutate: func(r *DispatchRequest) { r.UserIDs = []string{"1", "2", "3"} }, max: 2, wantField: "user_ids"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			errs := bv.ValidateDispatch(req, tt.max)

			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %+v", tt.wantField, errs)
			}
		})
	}
}

func TestValidatePreferenceUpdate(t *testing.T) {
	bv := NewBusinessValidator()

	ok := &UpdatePreferencesRequest{Preferences: []PreferenceItem{
		{Type: models.NotificationBadge, Channel: models.ChannelEmail, Enabled: boolPtr(false)},
		{Type: models.NotificationBadge, Channel: models.ChannelWebsocket, Enabled: boolPtr(true)},
	}}
	if errs := bv.ValidatePreferenceUpdate(ok); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	missingEnabled := &UpdatePreferencesRequest{Preferences: []PreferenceItem{
		{Type: models.NotificationBadge, Channel: models.ChannelEmail},
	}}
	if errs := bv.ValidatePreferenceUpdate(missingEnabled); len(errs) == 0 {
		t.Error("enabled must be explicit")
	}

	dup := &UpdatePreferencesRequest{Preferences: []PreferenceItem{
		{Type: models.NotificationBadge, Channel: models.ChannelEmail, Enabled: boolPtr(false)},
		{Type: models.NotificationBadge, Channel: models.ChannelEmail, Enabled: boolPtr(true)},
	}}
	if errs := bv.ValidatePreferenceUpdate(dup); len(errs) != 1 || errs[0].Field != "preferences[1]" {
		t.Errorf("expected duplicate error, got %v", errs)
	}
}

func TestValidator_CreateUser(t *testing.T) {
	v := New()
	phone := "+15550107"
	badPhone := "555-0107"

	if err := v.Validate(&CreateUserRequest{FullName: "Ada", Email: "ada@example.com", Phone: &phone, Role: models.RoleParent}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := v.Validate(&CreateUserRequest{FullName: "Ada", Email: "not-an-email", Phone: &badPhone, Role: "proctor"})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 3 {
		t.Errorf("expected 3 errors, got %v", verrs)
	}
}
