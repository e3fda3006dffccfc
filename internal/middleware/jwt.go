package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"lend_tracker/internal/models"
)

const (
	ctxUserID   = "user_id"
	ctxRole     = "role"
	ctxFriendID = "friend_id"
	ctxTracking = "tracking_token"
)

// Claims is the payload of every token we sign. Admin tokens carry
// UserID; friend session tokens carry FriendID and the tracking token
// they were unlocked for.
type Claims struct {
	UserID   uint   `json:"user_id,omitempty"`
	Role     string `json:"role"`
	FriendID uint   `json:"friend_id,omitempty"`
	Tracking string `json:"tracking,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks HS256 tokens with one secret.
type TokenIssuer struct {
	secret     []byte
	adminTTL   time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, adminTTL, sessionTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		adminTTL:   adminTTL,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func (t *TokenIssuer) sign(claims Claims, ttl time.Duration) (string, error) {
	now := t.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Generate issues an admin token.
func (t *TokenIssuer) Generate(userID uint, role string) (string, error) {
	return t.sign(Claims{UserID: userID, Role: role}, t.adminTTL)
}

// GenerateFriendSession issues the short-lived token handed out after a
// tracking link is unlocked.
func (t *TokenIssuer) GenerateFriendSession(friendID uint, trackingToken string) (string, error) {
	return t.sign(Claims{Role: models.RoleFriend, FriendID: friendID, Tracking: trackingToken}, t.sessionTTL)
}

// SessionTTL is how long a friend session lasts.
func (t *TokenIssuer) SessionTTL() time.Duration { return t.sessionTTL }

func (t *TokenIssuer) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func bearer(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(authHeader, "Bearer "), true
}

// authenticate validates the bearer token and stores its claims on the
// context. It aborts with 401 and returns false on failure; it never calls
// c.Next.
func (t *TokenIssuer) authenticate(c *gin.Context) (*Claims, bool) {
	tokenString, ok := bearer(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
		return nil, false
	}

	claims, err := t.Validate(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return nil, false
	}

	c.Set(ctxRole, claims.Role)
	if claims.UserID != 0 {
		c.Set(ctxUserID, claims.UserID)
	}
	if claims.FriendID != 0 {
		c.Set(ctxFriendID, claims.FriendID)
		c.Set(ctxTracking, claims.Tracking)
	}
	return claims, true
}

// RequireAuth ensures a valid JWT is present
func (t *TokenIssuer) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := t.authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireAuthWithRole ensures the JWT is valid and the user has a specific
// role. Downstream handlers only run once both checks pass.
func (t *TokenIssuer) RequireAuthWithRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := t.authenticate(c)
		if !ok {
			return
		}
		if claims.Role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the admin id set by RequireAuth.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// CurrentFriend returns the friend id and tracking token of a friend
// session.
func CurrentFriend(c *gin.Context) (uint, string, bool) {
	v, ok := c.Get(ctxFriendID)
	if !ok {
		return 0, "", false
	}
	id, ok := v.(uint)
	return id, c.GetString(ctxTracking), ok && id != 0
}
