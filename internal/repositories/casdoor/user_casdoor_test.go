package casdoor

import (
	"context"
	"errors"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/repositories"
)

type fakeCasdoor struct {
	users map[string]*casdoorsdk.User
	calls int
}

func (f *fakeCasdoor) GetUserByUserId(id string) (*casdoorsdk.User, error) {
	f.calls++
	return f.users[id], nil
}

func (f *fakeCasdoor) GetUserByEmail(email string) (*casdoorsdk.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeCasdoor) GetPaginationUsers(p int, pageSize int, queryMap map[string]string) ([]*casdoorsdk.User, int, error) {
	out := make([]*casdoorsdk.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func TestMapSingleCasdoorRoleToUserRole(t *testing.T) {
	tests := []struct {
		in   string
		want models.UserRole
	}{
		{"Teacher", models.RoleTeacher},
		{"instructor", models.RoleTeacher},
		{"guardian", models.RoleParent},
		{"parent", models.RoleParent},
		{"Administrator", models.RoleAdmin},
		{"student", models.RoleStudent},
		{"unknown", models.RoleStudent},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := mapSingleCasdoorRoleToUserRole(tt.in); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConvertCasdoorUserToModel(t *testing.T) {
	cu := &casdoorsdk.User{
		Id:          "u-7",
		DisplayName: "Ada",
		Email:       "ada@example.com",
		Phone:       "5550100",
		CountryCode: "+1",
		IsAdmin:     true,
	}

	user := convertCasdoorUserToModel(cu)
	if user.ID != "u-7" || user.FullName != "Ada" {
		t.Errorf("unexpected identity: %+v", user)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("IsAdmin should map to admin, got %s", user.Role)
	}
	if user.PhoneNumber() != "+15550100" {
		t.Errorf("phone = %q", user.PhoneNumber())
	}
	if user.AvatarURL != nil {
		t.Error("empty avatar should stay nil")
	}

	if convertCasdoorUserToModel(nil) != nil {
		t.Error("nil user should convert to nil")
	}
}

func TestUserCasdoor_GetByID(t *testing.T) {
	fake := &fakeCasdoor{users: map[string]*casdoorsdk.User{
		"u-1": {Id: "u-1", DisplayName: "One", Email: "one@example.com"},
	}}
	repo := newUserCasdoor(fake, nil)
	ctx := context.Background()

	user, err := repo.GetByID(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.Email != "one@example.com" {
		t.Errorf("email = %s", user.Email)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	users, err := repo.GetByIDs(ctx, []string{"u-1", "missing"})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("expected 1 user, got %d", len(users))
	}
}

func TestUserCasdoor_CreateIsReadOnly(t *testing.T) {
	repo := newUserCasdoor(&fakeCasdoor{}, nil)
	err := repo.Create(context.Background(), &models.User{ID: "x"})
	if !errors.Is(err, repositories.ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}
