package auth_test

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/servicemarket/missions/internal/auth"
)

var _ = Describe("jwt authentication", func() {
	Context("local tokens", func() {
		secret := []byte("s3cr3t")

		It("successfully validates the token", func() {
			id := uuid.New()
			token, err := auth.GenerateLocalToken(secret, id, auth.RoleProvider, "paul", time.Hour)
			Expect(err).To(BeNil())

			authenticator, err := auth.NewLocalAuthenticator(secret)
			Expect(err).To(BeNil())

			user, err := authenticator.Authenticate(token)
			Expect(err).To(BeNil())
			Expect(user.ID).To(Equal(id))
			Expect(user.Role).To(Equal(auth.RoleProvider))
			Expect(user.Username).To(Equal("paul"))
			Expect(user.IsAdmin()).To(BeFalse())
		})

		It("fails with another secret", func() {
			token, err := auth.GenerateLocalToken([]byte("other"), uuid.New(), auth.RoleClient, "chloe", time.Hour)
			Expect(err).To(BeNil())

			authenticator, err := auth.NewLocalAuthenticator(secret)
			Expect(err).To(BeNil())

			_, err = authenticator.Authenticate(token)
			Expect(err).ToNot(BeNil())
		})

		It("fails with an expired token", func() {
			token, err := auth.GenerateLocalToken(secret, uuid.New(), auth.RoleClient, "chloe", -time.Minute)
			Expect(err).To(BeNil())

			authenticator, err := auth.NewLocalAuthenticator(secret)
			Expect(err).To(BeNil())

			_, err = authenticator.Authenticate(token)
			Expect(err).ToNot(BeNil())
		})

		It("fails with an unknown role", func() {
			token, err := auth.GenerateLocalToken(secret, uuid.New(), "superuser", "joker", time.Hour)
			Expect(err).To(BeNil())

			authenticator, err := auth.NewLocalAuthenticator(secret)
			Expect(err).To(BeNil())

			_, err = authenticator.Authenticate(token)
			Expect(err).ToNot(BeNil())
		})
	})

	Context("signed with a key pair", func() {
		It("accepts RS256 and rejects HS256", func() {
			privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
			Expect(err).To(BeNil())

			id := uuid.New()
			t := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
				"sub":  id.String(),
				"role": auth.RoleAdmin,
				"iat":  time.Now().Unix(),
				"exp":  time.Now().Add(time.Hour).Unix(),
			})
			sToken, err := t.SignedString(privateKey)
			Expect(err).To(BeNil())

			authenticator, err := auth.NewJWTAuthenticatorWithKeyFn(func(*jwt.Token) (any, error) {
				return &privateKey.PublicKey, nil
			})
			Expect(err).To(BeNil())

			user, err := authenticator.Authenticate(sToken)
			Expect(err).To(BeNil())
			Expect(user.IsAdmin()).To(BeTrue())

			hsToken, err := auth.GenerateLocalToken([]byte("x"), id, auth.RoleAdmin, "", time.Hour)
			Expect(err).To(BeNil())
			_, err = authenticator.Authenticate(hsToken)
			Expect(err).ToNot(BeNil())
		})
	})

	Context("middleware", func() {
		secret := []byte("s3cr3t")

		It("puts the user in the request context", func() {
			id := uuid.New()
			token, err := auth.GenerateLocalToken(secret, id, auth.RoleClient, "chloe", time.Hour)
			Expect(err).To(BeNil())

			authenticator, err := auth.NewLocalAuthenticator(secret)
			Expect(err).To(BeNil())

			var got auth.User
			h := authenticator.Authenticator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = auth.MustHaveUser(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/missions", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(got.ID).To(Equal(id))
		})

		It("rejects a request without token", func() {
			authenticator, err := auth.NewLocalAuthenticator(secret)
			Expect(err).To(BeNil())

			h := authenticator.Authenticator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/missions", nil))

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Context("none authenticator", func() {
		It("impersonates the actor headers", func() {
			authenticator, err := auth.NewNoneAuthenticator()
			Expect(err).To(BeNil())

			id := uuid.New()
			var got auth.User
			h := authenticator.Authenticator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = auth.MustHaveUser(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(auth.ActorIDHeader, id.String())
			req.Header.Set(auth.ActorRoleHeader, auth.RoleProvider)
			h.ServeHTTP(httptest.NewRecorder(), req)

			Expect(got.ID).To(Equal(id))
			Expect(got.Role).To(Equal(auth.RoleProvider))
		})

		It("defaults to the administrator", func() {
			authenticator, err := auth.NewNoneAuthenticator()
			Expect(err).To(BeNil())

			var got auth.User
			h := authenticator.Authenticator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = auth.MustHaveUser(r.Context())
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			Expect(got.IsAdmin()).To(BeTrue())
			Expect(got.ID).To(Equal(auth.DefaultActorID))
		})
	})
})
