package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/foundationauth/internal/common"
	"github.com/dmitrijs2005/foundationauth/internal/server/auth"
	"github.com/dmitrijs2005/foundationauth/internal/server/models"
	"github.com/dmitrijs2005/foundationauth/internal/server/services"
	"github.com/golang-jwt/jwt/v5"
)

var created = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeAccounts accepts the session tokens "user-token" and "admin-token";
// "odd-role-token" is well formed but names a role the server does not know.
type fakeAccounts struct {
	registerErr error
	loginErr    error
	verifyErr   error
	resendErr   error
	updateErr   error
	deleteErr   error

	gotRegister services.RegisterInput
	gotUpdateID string
	gotUpdate   services.UpdateProfileInput
	gotDeleteID string
	gotVerify   string
}

func view(id, role string) *models.UserView {
	return &models.UserView{ID: id, Username: "alice", Email: "alice@x.com", Role: role, CreatedAt: created}
}

func (f *fakeAccounts) Register(_ context.Context, in services.RegisterInput) (*models.UserView, error) {
	f.gotRegister = in
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return view("u-1", "User"), nil
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (*services.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &services.LoginResult{Token: "user-token", ExpiresAt: created.Add(time.Hour), User: view("u-1", "User")}, nil
}

func (f *fakeAccounts) VerifyEmail(_ context.Context, token string) error {
	f.gotVerify = token
	return f.verifyErr
}

func (f *fakeAccounts) ResendVerification(context.Context, string) error { return f.resendErr }

func (f *fakeAccounts) GetProfile(_ context.Context, id string) (*models.UserView, error) {
	if id != "u-1" && id != "admin-1" {
		return nil, common.ErrNotFound
	}
	return view(id, "User"), nil
}

func (f *fakeAccounts) UpdateProfile(_ context.Context, id string, in services.UpdateProfileInput) (*models.UserView, error) {
	f.gotUpdateID, f.gotUpdate = id, in
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	v := view(id, "User")
	v.Username = in.Username
	return v, nil
}

func (f *fakeAccounts) DeleteAccount(_ context.Context, id string) error {
	f.gotDeleteID = id
	return f.deleteErr
}

func (f *fakeAccounts) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	switch token {
	case "user-token":
		return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"}, Username: "alice", Role: "User"}, nil
	case "admin-token":
		return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-1"}, Username: "root", Role: "Admin"}, nil
	case "odd-role-token":
		return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u-9"}, Username: "mallory", Role: "Superuser"}, nil
	case "expired-token":
		return nil, common.ErrTokenExpired
	default:
		return nil, common.ErrSignatureInvalid
	}
}
