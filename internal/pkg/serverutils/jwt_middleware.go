// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const UserIdLocal = "user_id"

// IssueToken signs an HS256 access token whose subject is the user id.
func IssueToken(secret, userId, email string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userId,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// JwtMiddleware rejects requests without a valid bearer token and stores
// the token subject under UserIdLocal. now decides expiry; nil means
// time.Now.
func JwtMiddleware(secret string, now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}
	parser := jwt.NewParser(jwt.WithTimeFunc(now), jwt.WithExpirationRequired())

	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return ctx.Status(fiber.StatusUnauthorized).JSON(Detail("Not authenticated"))
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := parser.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(Detail("Could not validate credentials"))
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(Detail("Could not validate credentials"))
		}

		ctx.Locals(UserIdLocal, sub)
		return ctx.Next()
	}
}

// UserId reads the subject stored by JwtMiddleware.
func UserId(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(UserIdLocal).(string)
	return id
}
