package auth_test

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/auth"
	"github.com/msallam/hotel-management/internal/permission"
	"github.com/msallam/hotel-management/internal/user"
	"github.com/msallam/hotel-management/pkg/logger"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

const (
	testAccessSecret  = "test-access-secret-0123456789abcdef"
	testRefreshSecret = "test-refresh-secret-0123456789abcdef"
)

// Mock user store for testing
type mockUserStore struct {
	users map[string]*user.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]*user.User)}
}

func (m *mockUserStore) add(id, email, password string) *user.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &user.User{
		ID:           id,
		Email:        email,
		Name:         "Test User",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	m.users[id] = u
	return u
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	return m.users[id], nil
}

func (m *mockUserStore) Update(ctx context.Context, u *user.User) error {
	m.users[u.ID] = u
	return nil
}

// Mock resolver store for testing
type mockResolverStore struct {
	userGrants []permission.Grant
}

func (m *mockResolverStore) GetUserGroup(ctx context.Context, userID string) (*permission.GroupRef, error) {
	return nil, nil
}

func (m *mockResolverStore) FindGroupPermissions(ctx context.Context, groupID string) ([]permission.Grant, error) {
	return nil, nil
}

func (m *mockResolverStore) FindUserPermissions(ctx context.Context, userID string) ([]permission.Grant, error) {
	return m.userGrants, nil
}

var _ = Describe("AuthService", func() {
	var (
		users    *mockUserStore
		resolver *permission.Resolver
		tokens   *auth.JWTTokenGenerator
		service  *auth.Service
		ctx      context.Context
	)

	BeforeEach(func() {
		users = newMockUserStore()
		resolver = permission.NewResolver(&mockResolverStore{
			userGrants: []permission.Grant{
				{Permission: permission.Permission{ID: "p1", Module: "Bookings", Action: "read"}, IsAllowed: true},
				{Permission: permission.Permission{ID: "p2", Module: "Bookings", Action: "cancel"}, IsAllowed: false},
			},
		}, logger.LoggerWrapper())
		tokens = auth.NewJWTTokenGenerator(testAccessSecret, testRefreshSecret, 15*time.Minute, 24*time.Hour)
		service = auth.NewService(users, tokens, resolver, logger.LoggerWrapper())
		ctx = context.Background()
	})

	Describe("Authenticate", func() {
		Context("with valid credentials", func() {
			It("should return tokens and the allowed permission keys", func() {
				users.add("u1", "staff@hotel.local", "s3cret-pass")

				resp, err := service.Authenticate(ctx, auth.LoginDTO{
					Email:    "staff@hotel.local",
					Password: "s3cret-pass",
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Tokens.AccessToken).NotTo(BeEmpty())
				Expect(resp.Tokens.RefreshToken).NotTo(BeEmpty())
				Expect(resp.Tokens.ExpiresIn).To(Equal(int64(900)))
				Expect(resp.User.Email).To(Equal("staff@hotel.local"))
				Expect(resp.Permissions).To(Equal([]string{"Bookings:read"}))
			})

			It("should record the login time", func() {
				u := users.add("u1", "staff@hotel.local", "s3cret-pass")
				Expect(u.LastLoginAt).To(BeNil())

				_, err := service.Authenticate(ctx, auth.LoginDTO{
					Email:    "staff@hotel.local",
					Password: "s3cret-pass",
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(users.users["u1"].LastLoginAt).NotTo(BeNil())
			})
		})

		Context("with bad credentials", func() {
			It("should reject a wrong password", func() {
				users.add("u1", "staff@hotel.local", "s3cret-pass")

				_, err := service.Authenticate(ctx, auth.LoginDTO{
					Email:    "staff@hotel.local",
					Password: "wrong",
				})

				Expect(err).To(MatchError(apperrors.ErrInvalidCredentials))
			})

			It("should reject an unknown email with the same error", func() {
				_, err := service.Authenticate(ctx, auth.LoginDTO{
					Email:    "nobody@hotel.local",
					Password: "whatever",
				})

				Expect(err).To(MatchError(apperrors.ErrInvalidCredentials))
			})
		})

		Context("with an inactive account", func() {
			It("should reject the login", func() {
				u := users.add("u1", "staff@hotel.local", "s3cret-pass")
				u.IsActive = false

				_, err := service.Authenticate(ctx, auth.LoginDTO{
					Email:    "staff@hotel.local",
					Password: "s3cret-pass",
				})

				Expect(err).To(MatchError(apperrors.ErrUserInactive))
			})
		})
	})

	Describe("RefreshTokens", func() {
		It("should issue a new pair for a valid refresh token", func() {
			users.add("u1", "staff@hotel.local", "s3cret-pass")
			refreshToken, err := tokens.GenerateRefreshToken("u1", "staff@hotel.local")
			Expect(err).NotTo(HaveOccurred())

			pair, err := service.RefreshTokens(ctx, auth.RefreshTokenDTO{RefreshToken: refreshToken})

			Expect(err).NotTo(HaveOccurred())
			Expect(pair.AccessToken).NotTo(BeEmpty())
			Expect(pair.RefreshToken).NotTo(BeEmpty())
		})

		It("should reject an access token used as refresh token", func() {
			users.add("u1", "staff@hotel.local", "s3cret-pass")
			accessToken, err := tokens.GenerateAccessToken("u1", "staff@hotel.local")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RefreshTokens(ctx, auth.RefreshTokenDTO{RefreshToken: accessToken})

			Expect(err).To(MatchError(apperrors.ErrInvalidToken))
		})

		It("should reject the refresh when the account was deactivated", func() {
			u := users.add("u1", "staff@hotel.local", "s3cret-pass")
			refreshToken, err := tokens.GenerateRefreshToken("u1", "staff@hotel.local")
			Expect(err).NotTo(HaveOccurred())
			u.IsActive = false

			_, err = service.RefreshTokens(ctx, auth.RefreshTokenDTO{RefreshToken: refreshToken})

			Expect(err).To(MatchError(apperrors.ErrUserInactive))
		})

		It("should reject the refresh when the account no longer exists", func() {
			refreshToken, err := tokens.GenerateRefreshToken("gone", "gone@hotel.local")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RefreshTokens(ctx, auth.RefreshTokenDTO{RefreshToken: refreshToken})

			Expect(err).To(MatchError(apperrors.ErrInvalidToken))
		})
	})

	Describe("ValidateAccessToken", func() {
		It("should return the claims of a valid token", func() {
			accessToken, err := tokens.GenerateAccessToken("u1", "staff@hotel.local")
			Expect(err).NotTo(HaveOccurred())

			claims, err := service.ValidateAccessToken(accessToken)

			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal("u1"))
			Expect(claims.Email).To(Equal("staff@hotel.local"))
		})

		It("should reject an expired token", func() {
			expired := auth.NewJWTTokenGenerator(testAccessSecret, testRefreshSecret, 15*time.Minute, 24*time.Hour)
			expired.AccessTokenTTL = -time.Minute
			accessToken, err := expired.GenerateAccessToken("u1", "staff@hotel.local")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ValidateAccessToken(accessToken)

			Expect(err).To(MatchError(apperrors.ErrTokenExpired))
		})

		It("should reject a token signed with another secret", func() {
			other := auth.NewJWTTokenGenerator("another-secret-0123456789abcdefgh", testRefreshSecret, 15*time.Minute, 24*time.Hour)
			accessToken, err := other.GenerateAccessToken("u1", "staff@hotel.local")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ValidateAccessToken(accessToken)

			Expect(err).To(MatchError(apperrors.ErrInvalidToken))
		})
	})
})
