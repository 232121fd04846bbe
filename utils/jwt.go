package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"familyquest/config"
	"familyquest/database"
	"familyquest/logger"
	"familyquest/models"

	"github.com/golang-jwt/jwt/v5"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RedisClient is an optional shared Redis client used for token revocation.
// It is nil when REDIS_ADDR is not configured.
var RedisClient *redis.Client

const (
	RefreshTokenTTLDays = 7
	blacklistPrefix     = "jwt:blacklist:"
)

// InitRedis connects the revocation store. Redis problems never fail startup;
// revocation falls back to the revoked_tokens table.
func InitRedis(addr string) {
	addr = strings.ReplaceAll(strings.TrimSpace(addr), " ", "")
	if addr == "" {
		return
	}
	opts := &redis.Options{Addr: addr}
	if p := os.Getenv("REDIS_PASS"); p != "" {
		opts.Password = p
	}
	opts.DB = config.GetInt("REDIS_DB", 0)
	rc := redis.NewClient(opts)
	if err := rc.Ping(context.Background()).Err(); err != nil {
		logger.L().Warn("redis ping failed, using database revocation", zap.String("addr", addr), zap.Error(err))
		return
	}
	RedisClient = rc
}

type contextKey string

const (
	ActorKey     = contextKey("actor")
	RequestIDKey = contextKey("requestID")
)

// Claims are the access token claims. Role is informational; authorization
// always uses the stored user.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func jwtSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return []byte(secret), nil
}

// GenerateAccessToken issues an access token with the configured lifetime.
func GenerateAccessToken(userID string, role models.Role) (string, error) {
	ttl := time.Duration(config.GetInt("ACCESS_TOKEN_TTL_MINUTES", 24*60)) * time.Minute
	return GenerateAccessTokenWithExpiry(userID, role, ttl)
}

func GenerateAccessTokenWithExpiry(userID string, role models.Role, expiry time.Duration) (string, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", err
	}
	jti, err := generateJTI(32)
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti,
			Issuer:    os.Getenv("JWT_ISS"),
		},
	}
	if aud := os.Getenv("JWT_AUD"); aud != "" {
		claims.Audience = jwt.ClaimStrings{aud}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// GenerateRefreshToken stores a new refresh token and returns its opaque id.
func GenerateRefreshToken(userID string) (string, error) {
	if database.DB == nil {
		return "", errors.New("database not initialized")
	}
	rt, err := models.NewRefreshToken(userID, RefreshTokenTTLDays)
	if err != nil {
		return "", err
	}
	if err := database.DB.Create(rt).Error; err != nil {
		return "", err
	}
	return rt.ID, nil
}

// ValidateAccessToken checks signature, registered claims and revocation.
func ValidateAccessToken(tokenStr string) (*Claims, error) {
	secret, err := jwtSecret()
	if err != nil {
		return nil, err
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if aud := os.Getenv("JWT_AUD"); aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	if iss := os.Getenv("JWT_ISS"); iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token expired")
		}
		return nil, errors.New("invalid token")
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	if claims.ID != "" && isRevoked(claims.ID) {
		return nil, errors.New("token revoked")
	}
	return claims, nil
}

// isRevoked checks the Redis blacklist first, then the revoked_tokens table.
// Store outages do not fail authentication.
func isRevoked(jti string) bool {
	if RedisClient != nil {
		res, err := RedisClient.Get(context.Background(), blacklistPrefix+jti).Result()
		return err == nil && res == "1"
	}
	if database.DB != nil {
		var rec models.RevokedToken
		err := database.DB.Where("id = ?", jti).First(&rec).Error
		if err == nil {
			return true
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.L().Warn("revocation lookup failed", zap.Error(err))
		}
	}
	return false
}

// ValidateRefreshToken checks that a refresh token exists and is neither expired nor revoked.
func ValidateRefreshToken(id string) (*models.RefreshToken, error) {
	if database.DB == nil {
		return nil, errors.New("database not initialized")
	}
	var rt models.RefreshToken
	if err := database.DB.Where("id = ?", id).First(&rt).Error; err != nil {
		return nil, err
	}
	if rt.Revoked {
		return nil, errors.New("refresh token revoked")
	}
	if time.Now().After(rt.ExpiresAt) {
		return nil, errors.New("refresh token expired")
	}
	return &rt, nil
}

// RevokeJTI blacklists an access token id until ttl passes.
func RevokeJTI(jti string, ttl time.Duration) error {
	if jti == "" {
		return errors.New("empty jti")
	}
	if RedisClient != nil {
		return RedisClient.Set(context.Background(), blacklistPrefix+jti, "1", ttl).Err()
	}
	if database.DB != nil {
		return database.DB.Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&models.RevokedToken{ID: jti, RevokedAt: time.Now()}).Error
	}
	return errors.New("no revocation store configured")
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	return tok, tok != ""
}

func generateJTI(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	const hex = "0123456789abcdef"
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = hex[int(b[i])%len(hex)]
	}
	return string(out), nil
}

// WithActor stores the authenticated user on the request context.
func WithActor(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ActorKey, u)
}

// GetActor returns the authenticated user loaded by the auth middleware.
func GetActor(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(ActorKey).(*models.User)
	return u, ok && u != nil
}
