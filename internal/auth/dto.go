package auth

import (
	"strings"

	errors "github.com/msallam/hotel-management/internal"
)

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return errors.NewValidationFieldError("email", "email is required", errors.ErrCodeInvalidEmail)
	}
	if d.Password == "" {
		return errors.NewValidationFieldError("password", "password is required", errors.ErrCodeValidationFailed)
	}
	return nil
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return errors.NewValidationFieldError("refresh_token", "refresh_token is required", errors.ErrCodeValidationFailed)
	}
	return nil
}

// LoginResponse carries the tokens plus what the client needs to render the
// session: the account and its effective permission keys.
type LoginResponse struct {
	Tokens      AuthTokens  `json:"tokens"`
	User        SessionUser `json:"user"`
	Permissions []string    `json:"permissions"`
}

type SessionUser struct {
	ID      string  `json:"id"`
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	GroupID *string `json:"group_id,omitempty"`
}
