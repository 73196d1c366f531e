package services

import (
	"fmt"

	"github.com/dmitrijs2005/foundationauth/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	usernameRules = []validation.Rule{validation.Length(3, 50)}
	emailRules    = []validation.Rule{validation.Length(3, 254), is.Email}
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

// passwordRules caps the length at whatever the hasher can take, so bcrypt
// (72 bytes) rejects long passwords here rather than at hashing time.
func passwordRules(hasherMax int) []validation.Rule {
	limit := maxPasswordLen
	if hasherMax > 0 && hasherMax < limit {
		limit = hasherMax
	}
	return []validation.Rule{validation.Length(minPasswordLen, limit)}
}

func validateRegister(in RegisterInput, hasherMax int) error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Username, append([]validation.Rule{validation.Required}, usernameRules...)...),
		validation.Field(&in.Email, append([]validation.Rule{validation.Required}, emailRules...)...),
		validation.Field(&in.Password, append([]validation.Rule{validation.Required}, passwordRules(hasherMax)...)...),
	)
	return asValidationError(err)
}

// validateUpdate checks only the supplied fields.
func validateUpdate(in UpdateProfileInput, hasherMax int) error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Username, usernameRules...),
		validation.Field(&in.Email, emailRules...),
		validation.Field(&in.NewPassword, passwordRules(hasherMax)...),
	)
	return asValidationError(err)
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", common.ErrValidation, err)
}
