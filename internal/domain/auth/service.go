package auth

import (
	"context"
)

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	// EnsureOwner creates the bootstrap owner account when the email is not registered yet.
	EnsureOwner(ctx context.Context, req BootstrapOwnerRequest) error
}
