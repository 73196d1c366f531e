package grpc

import (
	"errors"

	"github.com/dmitrijs2005/foundationauth/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC status codes. Messages come from the
// sentinel errors only, so internal details never leak to the caller. Login
// failures always read "invalid credentials".
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, "user not found")
	case errors.Is(err, common.ErrEmailTaken):
		return status.Error(codes.AlreadyExists, common.ErrEmailTaken.Error())
	case errors.Is(err, common.ErrUsernameTaken):
		return status.Error(codes.AlreadyExists, common.ErrUsernameTaken.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrEmailNotVerified):
		return status.Error(codes.FailedPrecondition, "email address is not verified; a new verification email has been sent")
	case errors.Is(err, common.ErrVerificationTokenNotFound):
		return status.Error(codes.InvalidArgument, common.ErrVerificationTokenNotFound.Error())
	case errors.Is(err, common.ErrAlreadyVerified):
		return status.Error(codes.FailedPrecondition, common.ErrAlreadyVerified.Error())
	case errors.Is(err, common.ErrVerificationTokenExpired):
		return status.Error(codes.FailedPrecondition, common.ErrVerificationTokenExpired.Error())
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrTransportFailure):
		return status.Error(codes.Unavailable, "verification email could not be sent")
	case errors.Is(err, common.ErrMissingToken):
		return status.Error(codes.Unauthenticated, common.ErrMissingToken.Error())
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrSignatureInvalid),
		errors.Is(err, common.ErrTokenMalformed),
		errors.Is(err, common.ErrTokenClaimsMismatch):
		return status.Error(codes.Unauthenticated, "invalid session token")
	case errors.Is(err, common.ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, common.ErrPermissionDenied.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
