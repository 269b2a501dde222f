package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const authUserKey = "auth_user"

// Claims is the access token payload. Subject carries the user ID.
type Claims struct {
	SteamID  string `json:"steamID"`
	GameAuth bool   `json:"gameAuth"`
	jwt.RegisteredClaims
}

// AuthUser is the caller identity attached to the request context.
type AuthUser struct {
	ID       string
	SteamID  string
	GameAuth bool
}

// Auth verifies the bearer token and attaches the caller to the request.
func Auth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authorized"})
		}

		user, err := ParseToken(secret, tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "bad token"})
		}

		c.Locals(authUserKey, user)
		return c.Next()
	}
}

// RequireGameAuth only lets through tokens issued to the game client.
func RequireGameAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authorized"})
		}
		if !user.GameAuth {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "game authentication required"})
		}
		return c.Next()
	}
}

func CurrentUser(c *fiber.Ctx) (*AuthUser, bool) {
	user, ok := c.Locals(authUserKey).(*AuthUser)
	return user, ok && user != nil
}

func ParseToken(secret, tokenStr string) (*AuthUser, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	cl, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("bad claims")
	}
	if cl.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &AuthUser{ID: cl.Subject, SteamID: cl.SteamID, GameAuth: cl.GameAuth}, nil
}

// SignToken issues an HS256 token for user, valid for ttl.
func SignToken(secret string, user AuthUser, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SteamID:  user.SteamID,
		GameAuth: user.GameAuth,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return tok.SignedString([]byte(secret))
}
