package auth_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/rentably/rent-collection/internal"
	"github.com/rentably/rent-collection/internal/auth"
	landlordmodel "github.com/rentably/rent-collection/internal/core/datamodel/landlord"
	"github.com/rentably/rent-collection/internal/core/datamodel/tenant"
)

func TestAuthService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Service Suite")
}

type mockRepository struct {
	landlords map[int64]*landlordmodel.Landlord
	byEmail   map[string]int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		landlords: make(map[int64]*landlordmodel.Landlord),
		byEmail:   make(map[string]int64),
	}
}

func (m *mockRepository) add(l *landlordmodel.Landlord) {
	m.landlords[l.ID] = l
	m.byEmail[l.Email] = l.ID
}

func (m *mockRepository) GetPasswordForEmail(email string) (string, int64, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return "", 0, fmt.Errorf("landlord not found")
	}
	return m.landlords[id].PasswordHash, id, nil
}

func (m *mockRepository) GetLandlordByID(landlordID int64) (*landlordmodel.Landlord, error) {
	l, ok := m.landlords[landlordID]
	if !ok {
		return nil, fmt.Errorf("landlord not found")
	}
	return l, nil
}

type mockDirectory struct {
	tenants    map[int64]*tenant.Tenant
	properties map[int64]*tenant.Property
}

func (m *mockDirectory) GetTenant(ctx context.Context, tenantID int64) (*tenant.Tenant, error) {
	t, ok := m.tenants[tenantID]
	if !ok {
		return nil, fmt.Errorf("tenant not found")
	}
	return t, nil
}

func (m *mockDirectory) GetProperty(ctx context.Context, propertyID int64) (*tenant.Property, error) {
	p, ok := m.properties[propertyID]
	if !ok {
		return nil, fmt.Errorf("property not found")
	}
	return p, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testTokenGenerator() *auth.JWTTokenGenerator {
	return auth.NewJWTTokenGenerator(internal.SecurityConfig{
		AccessTokenSecret:    "access-secret-for-tests",
		RefreshTokenSecret:   "refresh-secret-for-tests",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
	})
}

var _ = Describe("Service", func() {
	var (
		repo    *mockRepository
		service *auth.Service
	)

	hashOf := func(password string) string {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		return string(hash)
	}

	BeforeEach(func() {
		repo = newMockRepository()
		repo.add(&landlordmodel.Landlord{
			ID:               1,
			Email:            "mira@mail.com",
			PasswordHash:     hashOf("password"),
			SubscriptionTier: landlordmodel.TierPro,
			IsActive:         true,
		})
		service = auth.NewService(repo, testTokenGenerator(), bcrypt.MinCost)
	})

	Describe("Authenticate", func() {
		It("returns a token pair for valid credentials", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Email: "mira@mail.com", Password: "password"})

			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.LandlordID).To(Equal(int64(1)))
			Expect(claims.Email).To(Equal("mira@mail.com"))
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{Email: "mira@mail.com", Password: "wrong"})

			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("rejects an unknown email with the same error as a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{Email: "nobody@mail.com", Password: "password"})

			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("rejects a malformed login before touching storage", func() {
			_, err := service.Authenticate(auth.LoginDTO{Email: "not-an-email", Password: "password"})

			Expect(err).To(HaveOccurred())
			var verr auth.ValidationError
			Expect(err).To(BeAssignableToTypeOf(verr))
		})
	})

	Describe("RefreshTokens", func() {
		It("rotates the pair from a valid refresh token", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Email: "mira@mail.com", Password: "password"})
			Expect(err).NotTo(HaveOccurred())

			rotated, err := service.RefreshTokens(tokens.RefreshToken)

			Expect(err).NotTo(HaveOccurred())
			Expect(rotated.AccessToken).NotTo(BeEmpty())

			claims, err := service.ValidateAccessToken(rotated.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.LandlordID).To(Equal(int64(1)))
		})

		It("rejects garbage tokens", func() {
			_, err := service.RefreshTokens("not.a.token")

			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})
	})

	Describe("ValidateAccessToken", func() {
		It("rejects an expired token", func() {
			expired := testTokenGenerator()
			expired.AccessTokenTTL = -time.Minute

			token, err := expired.GenerateAccessToken(1, "mira@mail.com")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ValidateAccessToken(token)
			Expect(err).To(MatchError(auth.ErrTokenExpired))
		})

		It("rejects a token signed with a different secret", func() {
			other := auth.NewJWTTokenGenerator(internal.SecurityConfig{
				AccessTokenSecret:  "some-other-secret",
				RefreshTokenSecret: "another-other-secret",
			})
			token, err := other.GenerateAccessToken(1, "mira@mail.com")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ValidateAccessToken(token)
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})
	})

	Describe("GetLandlord", func() {
		It("refuses inactive accounts", func() {
			repo.add(&landlordmodel.Landlord{
				ID:               2,
				Email:            "gone@mail.com",
				SubscriptionTier: landlordmodel.TierPro,
				IsActive:         false,
			})

			_, err := service.GetLandlord(2)

			Expect(err).To(MatchError(auth.ErrLandlordInactive))
		})

		It("reports payout readiness from the stored record", func() {
			ref := "acct_1"
			now := time.Now()
			repo.add(&landlordmodel.Landlord{
				ID:               3,
				Email:            "ready@mail.com",
				SubscriptionTier: landlordmodel.TierPro,
				PayoutAccountRef: &ref,
				PayoutReadyAt:    &now,
				IsActive:         true,
			})

			l, err := service.GetLandlord(3)

			Expect(err).NotTo(HaveOccurred())
			Expect(l.PayoutReady).To(BeTrue())
		})
	})
})

var _ = Describe("Gate", func() {
	var (
		ctx       context.Context
		repo      *mockRepository
		directory *mockDirectory
		gate      *auth.Gate
	)

	addLandlord := func(id int64, tier string, payoutReady bool) {
		l := &landlordmodel.Landlord{
			ID:               id,
			Email:            fmt.Sprintf("landlord%d@mail.com", id),
			SubscriptionTier: tier,
			IsActive:         true,
		}
		if payoutReady {
			ref := fmt.Sprintf("acct_%d", id)
			now := time.Now()
			l.PayoutAccountRef = &ref
			l.PayoutReadyAt = &now
		}
		repo.add(l)
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		directory = &mockDirectory{
			tenants: map[int64]*tenant.Tenant{
				10: {ID: 10, LandlordID: 1, Name: "Jordan Pine"},
			},
			properties: map[int64]*tenant.Property{
				20: {ID: 20, LandlordID: 1, Label: "Unit 2B"},
			},
		}
		service := auth.NewService(repo, testTokenGenerator(), bcrypt.MinCost)
		gate = auth.NewGate(service, directory, testLogger())
	})

	Describe("AuthorizeCollection", func() {
		It("allows a payout-ready Pro landlord", func() {
			addLandlord(1, landlordmodel.TierPro, true)

			Expect(gate.AuthorizeCollection(ctx, 1)).To(Succeed())
		})

		It("denies a Basic landlord with a subscription error", func() {
			addLandlord(1, landlordmodel.TierBasic, true)

			err := gate.AuthorizeCollection(ctx, 1)

			Expect(err).To(MatchError(internal.ErrSubscriptionRequired))
		})

		It("denies a Pro landlord without payout setup", func() {
			addLandlord(1, landlordmodel.TierPro, false)

			err := gate.AuthorizeCollection(ctx, 1)

			Expect(err).To(MatchError(internal.ErrPayoutNotConfigured))
		})
	})

	Describe("AuthorizeLinking", func() {
		It("does not require payout setup", func() {
			addLandlord(1, landlordmodel.TierPro, false)

			Expect(gate.AuthorizeLinking(ctx, 1)).To(Succeed())
		})

		It("still requires the Pro tier", func() {
			addLandlord(1, landlordmodel.TierBasic, false)

			err := gate.AuthorizeLinking(ctx, 1)

			Expect(err).To(MatchError(internal.ErrSubscriptionRequired))
		})
	})

	Describe("ownership checks", func() {
		BeforeEach(func() {
			addLandlord(1, landlordmodel.TierPro, true)
			addLandlord(2, landlordmodel.TierPro, true)
		})

		It("accepts the owning landlord", func() {
			Expect(gate.OwnsTenant(ctx, 1, 10)).To(Succeed())
			Expect(gate.OwnsProperty(ctx, 1, 20)).To(Succeed())
		})

		It("masks another landlord's tenant as not found", func() {
			err := gate.OwnsTenant(ctx, 2, 10)

			Expect(err).To(MatchError(internal.ErrTenantNotFound))
		})

		It("masks another landlord's property as not found", func() {
			err := gate.OwnsProperty(ctx, 2, 20)

			Expect(err).To(MatchError(internal.ErrPropertyNotFound))
		})

		It("reports a nonexistent tenant the same way", func() {
			err := gate.OwnsTenant(ctx, 1, 999)

			Expect(err).To(MatchError(internal.ErrTenantNotFound))
		})
	})
})
