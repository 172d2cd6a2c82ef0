package auth

import "github.com/cmlabs-hris/erp-backend-go/internal/pkg/validator"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Email) {
		errs.Add("email", "email is required")
	} else if !validator.IsValidEmail(r.Email) {
		errs.Add("email", "email must be a valid email address")
	}

	if validator.IsEmpty(r.Password) {
		errs.Add("password", "password is required")
	}

	return errs.OrNil()
}

type TokenResponse struct {
	AccessToken          string `json:"access_token"`
	AccessTokenExpiresAt int64  `json:"access_token_expires_at"`
	UserID               int64  `json:"user_id"`
	Role                 string `json:"role"`
}

type BootstrapOwnerRequest struct {
	Email    string
	Name     string
	Password string
}

func (r *BootstrapOwnerRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidEmail(r.Email) {
		errs.Add("email", "email must be a valid email address")
	}
	if len(r.Password) < 8 {
		errs.Add("password", "password must be at least 8 characters")
	}

	return errs.OrNil()
}
