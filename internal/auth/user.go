package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RoleClient   = "client"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

type userKeyType struct{}

var userKey userKeyType

// User is the authenticated actor of a request.
type User struct {
	ID       uuid.UUID
	Role     string
	Username string
	Token    *jwt.Token
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func UserFromContext(ctx context.Context) (User, bool) {
	val, ok := ctx.Value(userKey).(User)
	return val, ok
}

func MustHaveUser(ctx context.Context) User {
	user, found := UserFromContext(ctx)
	if !found {
		zap.S().Named("auth").Panic("failed to find user in context")
	}
	return user
}

func NewUserContext(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}
