package security_test

import (
	"testing"
	"time"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/security"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute)

	user := domain.User{ID: uuid.New(), Username: "jordan"}

	accessToken, err := manager.GenerateAccessToken(user, true)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}

	if accessToken == "" {
		t.Error("access token is empty")
	}

	claims, err := manager.ValidateAccessToken(accessToken)
	if err != nil {
		t.Fatalf("failed to validate access token: %v", err)
	}

	if claims.User() != user {
		t.Errorf("user mismatch: got %v, want %v", claims.User(), user)
	}

	if !claims.Admin {
		t.Error("expected admin claim")
	}
}

func TestJWTManager_InvalidToken(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute)

	_, err := manager.ValidateAccessToken("invalid-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestJWTManager_WrongSecret(t *testing.T) {
	manager1 := security.NewJWTManager("secret-key-one-with-32-chars!!!!", 15*time.Minute)
	manager2 := security.NewJWTManager("secret-key-two-with-32-chars!!!!", 15*time.Minute)

	token, _ := manager1.GenerateAccessToken(domain.User{ID: uuid.New(), Username: "a"}, false)

	_, err := manager2.ValidateAccessToken(token)
	if err == nil {
		t.Error("expected error when validating with wrong secret")
	}
}

func TestJWTManager_Expired(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", -time.Minute)

	token, err := manager.GenerateAccessToken(domain.User{ID: uuid.New(), Username: "a"}, false)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := manager.ValidateAccessToken(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestJWTManager_MissingSubject(t *testing.T) {
	secret := "test-secret-key-with-32-chars!!"
	manager := security.NewJWTManager(secret, time.Minute)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "ghost",
		"exp":      time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := manager.ValidateAccessToken(signed); err == nil {
		t.Error("expected error for token without subject")
	}
}
