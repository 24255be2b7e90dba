package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JWTAuthenticator validates bearer tokens and maps their claims to a User:
// sub is the user id, role the marketplace role.
type JWTAuthenticator struct {
	keyFn   jwt.Keyfunc
	methods []string
}

func NewJWTAuthenticatorWithKeyFn(keyFn jwt.Keyfunc, methods ...string) (*JWTAuthenticator, error) {
	if len(methods) == 0 {
		methods = []string{jwt.SigningMethodRS256.Name}
	}
	return &JWTAuthenticator{keyFn: keyFn, methods: methods}, nil
}

// NewJWKSAuthenticator fetches signing keys from the identity provider.
func NewJWKSAuthenticator(jwkCertUrl string) (*JWTAuthenticator, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwkCertUrl})
	if err != nil {
		return nil, fmt.Errorf("failed to get public keys: %w", err)
	}

	return NewJWTAuthenticatorWithKeyFn(k.Keyfunc, jwt.SigningMethodRS256.Name)
}

// NewLocalAuthenticator accepts HS256 tokens signed with a shared secret.
func NewLocalAuthenticator(secret []byte) (*JWTAuthenticator, error) {
	return NewJWTAuthenticatorWithKeyFn(func(_ *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.SigningMethodHS256.Name)
}

func (a *JWTAuthenticator) Authenticate(token string) (User, error) {
	parser := jwt.NewParser(jwt.WithValidMethods(a.methods), jwt.WithIssuedAt(), jwt.WithExpirationRequired())
	t, err := parser.Parse(token, a.keyFn)
	if err != nil {
		return User{}, fmt.Errorf("failed to authenticate token: %w", err)
	}
	if !t.Valid {
		return User{}, errors.New("failed to parse or validate token")
	}

	return parseToken(t)
}

func parseToken(t *jwt.Token) (User, error) {
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return User{}, errors.New("failed to parse jwt token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return User{}, err
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return User{}, fmt.Errorf("subject is not a user id: %w", err)
	}

	role, _ := claims["role"].(string)
	switch role {
	case RoleClient, RoleProvider, RoleAdmin:
	default:
		return User{}, fmt.Errorf("unknown role %q", role)
	}

	username, _ := claims["preferred_username"].(string)

	return User{ID: id, Role: role, Username: username, Token: t}, nil
}

func (a *JWTAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || accessToken == "" {
			http.Error(w, "No token provided", http.StatusUnauthorized)
			return
		}

		user, err := a.Authenticate(accessToken)
		if err != nil {
			zap.S().Named("auth").Debugw("authentication failed", "error", err)
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(NewUserContext(r.Context(), user)))
	})
}

// GenerateLocalToken signs an HS256 token accepted by NewLocalAuthenticator.
func GenerateLocalToken(secret []byte, id uuid.UUID, role, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":                id.String(),
		"role":               role,
		"preferred_username": username,
		"iat":                now.Unix(),
		"exp":                now.Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}
