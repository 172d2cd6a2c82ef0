package user

import (
	"context"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	ListSalespeople(ctx context.Context) ([]User, error)
	Create(ctx context.Context, newUser User) (User, error)
}
