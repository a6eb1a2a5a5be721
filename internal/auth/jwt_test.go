package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestGenerateAndVerifyJWT(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateJWT(userID, "javier@example.com", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT err: %v", err)
	}

	claims, err := VerifyJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("VerifyJWT err: %v", err)
	}

	if claims["id"] != userID.String() {
		t.Errorf("claim id = %v; want %s", claims["id"], userID)
	}
	if claims["email"] != "javier@example.com" {
		t.Errorf("claim email = %v; want javier@example.com", claims["email"])
	}
}

func TestVerifyJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT(uuid.New(), "javier@example.com", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT err: %v", err)
	}

	if _, err := VerifyJWT(token, "other-secret"); err == nil {
		t.Fatal("VerifyJWT accepted a token signed with another secret")
	}
}

func TestVerifyJWTExpired(t *testing.T) {
	token, err := GenerateJWT(uuid.New(), "javier@example.com", "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT err: %v", err)
	}

	_, err = VerifyJWT(token, "test-secret")
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("VerifyJWT err = %v; want token expired", err)
	}
}

func TestVerifyJWTRejectsUnsignedToken(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": uuid.NewString()})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString err: %v", err)
	}

	if _, err := VerifyJWT(token, "test-secret"); err == nil {
		t.Fatal("VerifyJWT accepted an unsigned token")
	}
}

func TestVerifyJWTMalformed(t *testing.T) {
	if _, err := VerifyJWT("not.a.token", "test-secret"); err == nil {
		t.Fatal("VerifyJWT accepted a malformed token")
	}
}
