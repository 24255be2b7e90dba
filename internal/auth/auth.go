package auth

import (
	"fmt"
	"net/http"

	"github.com/servicemarket/missions/internal/config"
	"go.uber.org/zap"
)

type Authenticator interface {
	Authenticator(next http.Handler) http.Handler
}

const (
	JWKSAuthentication  string = "jwks"
	LocalAuthentication string = "local"
	NoneAuthentication  string = "none"
)

func NewAuthenticator(authConfig config.Auth) (Authenticator, error) {
	zap.S().Named("auth").Infof("authentication: '%s'", authConfig.AuthenticationType)

	switch authConfig.AuthenticationType {
	case JWKSAuthentication:
		return NewJWKSAuthenticator(authConfig.JwkCertURL)
	case LocalAuthentication:
		if authConfig.LocalSecret == "" {
			return nil, fmt.Errorf("local authentication requires a secret")
		}
		return NewLocalAuthenticator([]byte(authConfig.LocalSecret))
	case NoneAuthentication, "":
		return NewNoneAuthenticator()
	default:
		return nil, fmt.Errorf("unknown authentication type %q", authConfig.AuthenticationType)
	}
}
