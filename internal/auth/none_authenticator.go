package auth

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	ActorIDHeader   = "X-Actor-Id"
	ActorRoleHeader = "X-Actor-Role"
)

// DefaultActorID is the administrator impersonated when no actor header is set.
var DefaultActorID = uuid.MustParse("00000000-0000-0000-0000-00000000a001")

// NoneAuthenticator trusts the actor headers. Development only.
type NoneAuthenticator struct{}

func NewNoneAuthenticator() (*NoneAuthenticator, error) {
	return &NoneAuthenticator{}, nil
}

func (n *NoneAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := User{ID: DefaultActorID, Role: RoleAdmin, Username: "admin"}

		if id := r.Header.Get(ActorIDHeader); id != "" {
			parsed, err := uuid.Parse(id)
			if err != nil {
				http.Error(w, "invalid actor id", http.StatusUnauthorized)
				return
			}
			user = User{ID: parsed, Role: r.Header.Get(ActorRoleHeader), Username: parsed.String()}
		}

		next.ServeHTTP(w, r.WithContext(NewUserContext(r.Context(), user)))
	})
}
