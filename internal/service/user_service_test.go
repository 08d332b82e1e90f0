package service

import (
	"context"
	"testing"

	"github.com/chahe-dridi/prelevements-backend/internal/model"
	"github.com/chahe-dridi/prelevements-backend/internal/repository"
	"github.com/chahe-dridi/prelevements-backend/pkg/apperr"

	"gorm.io/gorm"
)

type userFixture struct {
	db  *gorm.DB
	svc UserService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	db := openTestDB(t)
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)
	return &userFixture{db: db, svc: NewUserService(userRepo, requestRepo, auditRepo, txManager)}
}

func (f *userFixture) register(t *testing.T, email string) *UserResponse {
	t.Helper()
	user, err := f.svc.Register(context.Background(), RegisterRequest{
		FirstName: "Alice",
		LastName:  "Martin",
		Email:     email,
		Password:  "secret1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return user
}

func TestRegisterForcesUserRole(t *testing.T) {
	f := newUserFixture(t)

	user := f.register(t, "alice@example.com")
	if user.Role != model.RoleUser {
		t.Fatalf("role = %s, want %s", user.Role, model.RoleUser)
	}

	// Password never stored in clear
	var stored model.User
	if err := f.db.First(&stored, "email = ?", "alice@example.com").Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.Password == "secret1" || stored.Password == "" {
		t.Fatalf("password stored improperly")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newUserFixture(t)
	f.register(t, "alice@example.com")

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		FirstName: "Other", LastName: "Alice", Email: "alice@example.com", Password: "secret1",
	})
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestLoginAndRefreshRotation(t *testing.T) {
	f := newUserFixture(t)
	f.register(t, "alice@example.com")
	ctx := context.Background()

	if _, err := f.svc.Login(ctx, LoginUserRequest{Email: "alice@example.com", Password: "wrong"}); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("bad password err = %v, want unauthorized", err)
	}
	if _, err := f.svc.Login(ctx, LoginUserRequest{Email: "nobody@example.com", Password: "secret1"}); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("unknown email err = %v, want unauthorized", err)
	}

	tokens, err := f.svc.Login(ctx, LoginUserRequest{Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tokens.Token == "" || tokens.RefreshToken == "" {
		t.Fatalf("incomplete token pair: %+v", tokens)
	}

	rotated, err := f.svc.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}

	// The consumed token is dead
	if _, err := f.svc.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: tokens.RefreshToken}); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("reused token err = %v, want unauthorized", err)
	}
}

func TestUpdatePasswordValidation(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "alice@example.com")
	ctx := context.Background()

	err := f.svc.UpdatePassword(ctx, user.ID, UpdatePasswordRequest{Password: "secret2", ConfirmPassword: "mismatch"})
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("mismatch err = %v, want invalid input", err)
	}
	err = f.svc.UpdatePassword(ctx, user.ID, UpdatePasswordRequest{Password: "tiny", ConfirmPassword: "tiny"})
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("short err = %v, want invalid input", err)
	}

	if err := f.svc.UpdatePassword(ctx, user.ID, UpdatePasswordRequest{Password: "secret2", ConfirmPassword: "secret2"}); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if _, err := f.svc.Login(ctx, LoginUserRequest{Email: "alice@example.com", Password: "secret2"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestChangeRole(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "alice@example.com")
	ctx := context.Background()

	if err := f.svc.ChangeRole(ctx, "", ChangeRoleRequest{UserID: user.ID, Role: "owner"}); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("bad role err = %v, want invalid input", err)
	}

	if err := f.svc.ChangeRole(ctx, "", ChangeRoleRequest{UserID: user.ID, Role: model.RoleAdmin}); err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	reloaded, err := f.svc.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if reloaded.Role != model.RoleAdmin {
		t.Fatalf("role = %s, want %s", reloaded.Role, model.RoleAdmin)
	}
}

func TestAdminUpdateUserFavoredFlag(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "alice@example.com")
	ctx := context.Background()

	favored := true
	updated, err := f.svc.AdminUpdateUser(ctx, "", user.ID, AdminUpdateUserRequest{Favored: &favored})
	if err != nil {
		t.Fatalf("AdminUpdateUser: %v", err)
	}
	if !updated.Favored {
		t.Fatalf("favored not set")
	}

	listed, err := f.svc.ListFavoredUsers(ctx)
	if err != nil {
		t.Fatalf("ListFavoredUsers: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != user.ID {
		t.Fatalf("favored list = %+v", listed)
	}
}

func TestDeleteUserBlockedByRequests(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "alice@example.com")
	ctx := context.Background()

	var stored model.User
	if err := f.db.First(&stored, "email = ?", "alice@example.com").Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	cat := model.Category{Name: "Office supplies"}
	if err := f.db.Create(&cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	req := model.Request{RequesterID: stored.ID, CategoryID: cat.ID, Status: model.StatusPending}
	if err := f.db.Create(&req).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}

	if err := f.svc.DeleteUser(ctx, "", user.ID); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("err = %v, want invalid state", err)
	}

	if err := f.db.Delete(&model.Request{}, "id = ?", req.ID).Error; err != nil {
		t.Fatalf("clear request: %v", err)
	}
	if err := f.svc.DeleteUser(ctx, "", user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := f.svc.GetUserByID(ctx, user.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("deleted user still readable: %v", err)
	}
}
