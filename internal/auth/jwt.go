package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lalith-99/teamup/internal/models"
)

// Claims is the payload inside every user token. Name, EmployeeID and
// Role ride along so the presence layer can build its snapshot without a
// database round trip. The coordinator never trusts the role claim; it
// re-reads the user row inside the join transaction.
type Claims struct {
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	EmployeeID string    `json:"employee_id"`
	Role       string    `json:"role"`
	jwt.RegisteredClaims
}

// AdminClaims is the payload inside an admin token. Admins are not
// users; they exist only in config.
type AdminClaims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

const issuer = "teamup"

// GenerateToken creates a signed token for a registered user.
func GenerateToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:     user.ID,
		Name:       user.Name,
		EmployeeID: user.EmployeeID,
		Role:       user.RoleCategory,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// GenerateAdminToken creates a signed token for the configured admin.
func GenerateAdminToken(secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := AdminClaims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}

	return signed, nil
}

// ParseToken validates a user token: signature, expiry, and that the
// signing method is HMAC (rejects algorithm-confusion tokens).
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// ParseAdminToken validates an admin token.
func ParseAdminToken(tokenString, secret string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("parse admin token: %w", err)
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || !claims.Admin {
		return nil, fmt.Errorf("invalid admin token claims")
	}

	return claims, nil
}
