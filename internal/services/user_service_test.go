package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/validator"
)

func TestUserService_Create(t *testing.T) {
	phone := "+15550001111"

	tests := []struct {
		name     string
		readOnly bool
		existing string
		req      *CreateUserRequest
		wantErr  error
	}{
		{
			name: "created",
			req:  &CreateUserRequest{ID: "u1", FullName: " Ada ", Email: "Ada@Example.com", Phone: &phone, Role: models.RoleTeacher},
		},
		{
			name:    "invalid",
			req:     &CreateUserRequest{FullName: "Ada", Email: "not-an-email", Role: models.RoleTeacher},
			wantErr: ErrValidationFailed,
		},
		{
			name:     "duplicate",
			existing: "u1",
			req:      &CreateUserRequest{ID: "u1", FullName: "Ada", Email: "ada@example.com", Role: models.RoleStudent},
			wantErr:  ErrUserExists,
		},
		{
			name:     "read-only directory",
			readOnly: true,
			req:      &CreateUserRequest{FullName: "Ada", Email: "ada@example.com", Role: models.RoleStudent},
			wantErr:  ErrUserDirectoryReadOnly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.readOnlyUsers = tt.readOnly
			if tt.existing != "" {
				store.addUser(tt.existing, "taken@example.com", "")
			}
			svc := NewUserService(store, testLogger(), validator.New())

			user, err := svc.Create(context.Background(), tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if user.FullName != "Ada" || user.Email != "ada@example.com" || user.PhoneNumber() != phone {
				t.Errorf("user = %+v", user)
			}

			got, err := svc.GetByID(context.Background(), "u1")
			if err != nil || got.ID != "u1" {
				t.Errorf("GetByID() = %+v, %v", got, err)
			}
		})
	}
}

func TestUserService_GeneratesID(t *testing.T) {
	svc := NewUserService(newFakeStore(), testLogger(), validator.New())
	user, err := svc.Create(context.Background(), &CreateUserRequest{FullName: "Ada", Email: "ada@example.com", Role: models.RoleParent})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == "" {
		t.Error("ID should be generated")
	}
}

func TestUserService_GetByIDNotFound(t *testing.T) {
	svc := NewUserService(newFakeStore(), testLogger(), validator.New())
	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
}

func TestExportService_ExportNotifications(t *testing.T) {
	store := newFakeStore()
	notifier := newTestNotificationService(store, nil, nil)
	ctx := context.Background()

	if _, err := notifier.Notify(ctx, &DispatchRequest{
		UserIDs: []string{"u1", "u2", "u1"},
		Subject: "Deadline",
		Message: "Essay due Friday",
		Type:    models.NotificationAssignmentDue,
	}); err != nil {
		t.Fatal(err)
	}

	svc := NewExportService(store, testLogger())
	data, err := svc.ExportNotifications(ctx, &ExportRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("ExportNotifications() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][2] != "Type" {
		t.Errorf("header = %v", rows[0])
	}
	for _, r := range rows[1:] {
		if r[1] != "u1" || r[2] != "assignment_due" || r[3] != "Deadline" {
			t.Errorf("row = %v", r)
		}
	}
}
