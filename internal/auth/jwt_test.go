package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lalith-99/teamup/internal/models"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Name:         "张三",
		EmployeeID:   "E1042",
		RoleCategory: "RND",
	}

	signed, err := GenerateToken(user, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseToken(signed, testSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != user.ID || claims.Name != user.Name ||
		claims.EmployeeID != user.EmployeeID || claims.Role != user.RoleCategory {
		t.Fatalf("claims = %+v, want the user's fields", claims)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	user := &models.User{ID: uuid.New(), RoleCategory: "RND"}
	signed, err := GenerateToken(user, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(signed, testSecret); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	user := &models.User{ID: uuid.New(), RoleCategory: "RND"}
	signed, err := GenerateToken(user, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(signed, "other-secret"); err == nil {
		t.Fatal("token signed with a different secret accepted")
	}
}

func TestUserTokenIsNotAdminToken(t *testing.T) {
	user := &models.User{ID: uuid.New(), RoleCategory: "RND"}
	signed, err := GenerateToken(user, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseAdminToken(signed, testSecret); err == nil {
		t.Fatal("user token accepted as admin token")
	}

	adminSigned, err := GenerateAdminToken(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate admin: %v", err)
	}
	if _, err := ParseAdminToken(adminSigned, testSecret); err != nil {
		t.Fatalf("parse admin: %v", err)
	}
}
