package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rentably/rent-collection/internal/core/datamodel/landlord"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetLandlord(landlordID int64) (*Landlord, error)
	HashPassword(password string) (string, error)
}

type RepositoryAPI interface {
	GetPasswordForEmail(email string) (passwordHash string, landlordID int64, err error)
	GetLandlordByID(landlordID int64) (*landlord.Landlord, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(landlordID int64, email string) (token string, err error)
	GenerateRefreshToken(landlordID int64, email string) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Landlord is the authenticated identity every request carries. The tier
// and payout fields are all the gate needs; profile data stays in the
// landlord package.
type Landlord struct {
	ID               int64  `json:"id"`
	Email            string `json:"email"`
	SubscriptionTier string `json:"subscription_tier"`
	PayoutReady      bool   `json:"payout_ready"`
}

// HasProTier reports whether the subscription unlocks rent collection.
func (l *Landlord) HasProTier() bool {
	return l.SubscriptionTier == landlord.TierPro
}

type ctxKey string

const ContextLandlordKey ctxKey = "landlord"

func LandlordFromContext(ctx context.Context) (*Landlord, bool) {
	l, ok := ctx.Value(ContextLandlordKey).(*Landlord)
	return l, ok
}

func ContextWithLandlord(ctx context.Context, l *Landlord) context.Context {
	return context.WithValue(ctx, ContextLandlordKey, l)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Claims struct {
	LandlordID int64  `json:"landlord_id"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrLandlordInactive   = errors.New("landlord account is inactive")
)

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
