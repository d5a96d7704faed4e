package auth

import (
	"errors"
	"time"

	"depot-backend/internal/config"
	"depot-backend/internal/models"
	"depot-backend/internal/timeutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeSession   = "session"
	tokenTypeTwoFactor = "2fa_pending"
	twoFactorTokenTTL  = 5 * time.Minute
	defaultExpiryHours = 12
)

type Claims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	hours := cfg.JWT.ExpirationHours
	if hours <= 0 {
		hours = defaultExpiryHours
	}
	return &JWTManager{
		secret: []byte(cfg.JWT.Secret),
		issuer: cfg.JWT.Issuer,
		ttl:    time.Duration(hours) * time.Hour,
	}
}

// GenerateToken creates a session token for a user
func (j *JWTManager) GenerateToken(user *models.User) (string, error) {
	return j.sign(user, tokenTypeSession, j.ttl)
}

// GenerateTempToken creates the short-lived token handed out between password and 2FA code
func (j *JWTManager) GenerateTempToken(user *models.User) (string, error) {
	return j.sign(user, tokenTypeTwoFactor, twoFactorTokenTTL)
}

// ValidateToken verifies a session token and returns the claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	return j.parse(tokenString, tokenTypeSession)
}

// ValidateTempToken verifies a pending-2FA token and returns the claims
func (j *JWTManager) ValidateTempToken(tokenString string) (*Claims, error) {
	return j.parse(tokenString, tokenTypeTwoFactor)
}

func (j *JWTManager) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := timeutil.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

func (j *JWTManager) parse(tokenString, tokenType string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Type != tokenType {
		return nil, errors.New("invalid token type")
	}
	return claims, nil
}
