package grpc

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/foundationauth/internal/api"
	"github.com/dmitrijs2005/foundationauth/internal/common"
	"github.com/dmitrijs2005/foundationauth/internal/server/models"
	"github.com/dmitrijs2005/foundationauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {
	user, err := s.accounts.Register(ctx, services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.logError(ctx, "register", err)
		return nil, toStatus(err)
	}
	return &api.RegisterResponse{User: toAPIUser(user)}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	res, err := s.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.logError(ctx, "login", err)
		return nil, toStatus(err)
	}
	return &api.LoginResponse{Token: res.Token, ExpiresAt: res.ExpiresAt, User: toAPIUser(res.User)}, nil
}

func (s *GRPCServer) VerifyEmail(ctx context.Context, req *api.VerifyEmailRequest) (*api.VerifyEmailResponse, error) {
	if err := s.accounts.VerifyEmail(ctx, req.Token); err != nil {
		s.logError(ctx, "verify email", err)
		return nil, toStatus(err)
	}
	return &api.VerifyEmailResponse{Message: "email address verified"}, nil
}

func (s *GRPCServer) ResendVerification(ctx context.Context, req *api.ResendVerificationRequest) (*api.ResendVerificationResponse, error) {
	if err := s.accounts.ResendVerification(ctx, req.Email); err != nil {
		s.logError(ctx, "resend verification", err)
		return nil, toStatus(err)
	}
	return &api.ResendVerificationResponse{Message: "if the address is pending verification, a new email has been sent"}, nil
}

func (s *GRPCServer) GetProfile(ctx context.Context, _ *api.GetProfileRequest) (*api.ProfileResponse, error) {
	id, err := callerID(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	user, err := s.accounts.GetProfile(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.ProfileResponse{User: toAPIUser(user)}, nil
}

func (s *GRPCServer) UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (*api.ProfileResponse, error) {
	id, err := callerID(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	user, err := s.accounts.UpdateProfile(ctx, id, services.UpdateProfileInput{
		Username:    req.Username,
		Email:       req.Email,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		s.logError(ctx, "update profile", err)
		return nil, toStatus(err)
	}
	return &api.ProfileResponse{User: toAPIUser(user)}, nil
}

func (s *GRPCServer) DeleteAccount(ctx context.Context, _ *api.DeleteAccountRequest) (*api.DeleteAccountResponse, error) {
	id, err := callerID(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.accounts.DeleteAccount(ctx, id); err != nil {
		s.logError(ctx, "delete account", err)
		return nil, toStatus(err)
	}
	return &api.DeleteAccountResponse{}, nil
}

func (s *GRPCServer) AdminPing(ctx context.Context, _ *api.AdminPingRequest) (*api.AdminPingResponse, error) {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, toStatus(common.ErrMissingToken)
	}
	return &api.AdminPingResponse{Message: fmt.Sprintf("Welcome, Admin %s!", claims.Username)}, nil
}

func callerID(ctx context.Context) (string, error) {
	claims, ok := claimsFromContext(ctx)
	if !ok || claims.UserID() == "" {
		return "", common.ErrMissingToken
	}
	return claims.UserID(), nil
}

// logError logs failures the caller cannot act on; expected outcomes such as
// bad credentials are left to the rpc log line.
func (s *GRPCServer) logError(ctx context.Context, op string, err error) {
	switch status.Code(toStatus(err)) {
	case codes.Internal, codes.Unavailable:
		s.logger.Error(ctx, op+" failed", "error", err)
	}
}

func toAPIUser(v *models.UserView) *api.User {
	if v == nil {
		return nil
	}
	return &api.User{
		ID:              v.ID,
		Username:        v.Username,
		Email:           v.Email,
		Role:            v.Role,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
		IsEmailVerified: v.IsEmailVerified,
	}
}
