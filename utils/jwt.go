package utils

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/toorbo1/telegram-community1-sub000/config"
	"github.com/toorbo1/telegram-community1-sub000/models"

	"github.com/golang-jwt/jwt/v5"
	redis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type contextKey string

const UserIDKey = contextKey("userID")
const RequestIDKey = contextKey("requestID")

const blacklistPrefix = "jwt:blacklist:"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims carries the Telegram user id of the session owner. Role is a hint
// for the client; admin routes re-check the profile on every request.
type Claims struct {
	UserID int64  `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates access tokens. Revoked token ids live in
// Redis when a client is configured and in the revoked_tokens table otherwise.
type TokenManager struct {
	secret []byte
	aud    string
	iss    string
	ttl    time.Duration
	redis  redis.UniversalClient
	db     *gorm.DB
}

func NewTokenManager(cfg *config.Config, db *gorm.DB, rc redis.UniversalClient) *TokenManager {
	ttl := cfg.JWTTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{
		secret: []byte(cfg.JWTSecret),
		aud:    cfg.JWTAud,
		iss:    cfg.JWTIss,
		ttl:    ttl,
		redis:  rc,
		db:     db,
	}
}

// Issue signs an HS256 access token for the user.
func (m *TokenManager) Issue(userID int64, role string) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, errors.New("JWT_SECRET is not set")
	}
	jti, err := generateJTI(16)
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now()
	exp := now.Add(m.ttl)
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti,
			Issuer:    m.iss,
		},
	}
	if m.aud != "" {
		claims.Audience = jwt.ClaimStrings{m.aud}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse validates signature, registered claims and revocation.
func (m *TokenManager) Parse(ctx context.Context, tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.aud != "" {
		opts = append(opts, jwt.WithAudience(m.aud))
	}
	if m.iss != "" {
		opts = append(opts, jwt.WithIssuer(m.iss))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	if claims.ID != "" && m.isRevoked(ctx, claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// isRevoked ignores store errors; an outage must not lock every user out.
func (m *TokenManager) isRevoked(ctx context.Context, jti string) bool {
	if m.redis != nil {
		res, err := m.redis.Get(ctx, blacklistPrefix+jti).Result()
		return err == nil && res == "1"
	}
	if m.db != nil {
		var count int64
		if err := m.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("id = ?", jti).Count(&count).Error; err == nil {
			return count > 0
		}
	}
	return false
}

// Revoke blacklists the token until it would have expired anyway.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return errors.New("empty jti")
	}
	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	ttl := time.Until(expires)
	if ttl <= 0 {
		return nil
	}
	if m.redis != nil {
		return m.redis.Set(ctx, blacklistPrefix+claims.ID, "1", ttl).Err()
	}
	if m.db != nil {
		rec := models.RevokedToken{ID: claims.ID, ExpiresAt: expires, RevokedAt: time.Now()}
		return m.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
	}
	return errors.New("no revocation store configured")
}

// PurgeRevoked drops table entries whose tokens have expired.
func (m *TokenManager) PurgeRevoked(ctx context.Context) (int64, error) {
	if m.db == nil {
		return 0, nil
	}
	res := m.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", errors.New("missing or invalid Authorization header")
	}
	tok := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	if tok == "" {
		return "", errors.New("empty bearer token")
	}
	return tok, nil
}

func generateJTI(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jti: %w", err)
	}
	return hex.EncodeToString(b), nil
}

const claimsKey = contextKey("claims")

// WithClaims stores the authenticated session on the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return context.WithValue(ctx, UserIDKey, claims.UserID)
}

func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}

// Get userID from context
func GetUserID(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(UserIDKey).(int64)
	return id, ok && id > 0
}
