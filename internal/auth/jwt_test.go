package auth

import (
	"testing"

	"github.com/inkwell-labs/inkwell/internal/config"
	"github.com/inkwell-labs/inkwell/internal/constant"
)

// Perform token generation and verify the generated token to ensure VerifyJwtToken is correct
func TestJWT(t *testing.T) {
	jwtService := NewJwt(config.AuthConfig{JWT_SECRET: "test-secret"}, nil)

	payload := JWTPayload{
		ID:    "id1234",
		Email: "test@gmail.com",
	}

	refreshToken, accessToken, err := jwtService.GenerateRefreshAndAccessToken(payload)
	if err != nil {
		t.Errorf(
			"An error occurred during refresh token and access token generation. Error: %v", err)
	}

	refreshClaims, err := jwtService.VerifyJwtToken(*refreshToken)
	if err != nil {
		t.Errorf(
			"An error occurred during refresh token verification. Error: %v", err)
	}
	if refreshClaims.Type != constant.JWT_TYPE_REFRESH {
		t.Errorf("Refresh token type = %s, want %s", refreshClaims.Type, constant.JWT_TYPE_REFRESH)
	}

	accessClaims, err := jwtService.VerifyJwtToken(*accessToken)
	if err != nil {
		t.Errorf(
			"An error occurred during access token verification. Error: %v", err)
	}
	if accessClaims.Type != constant.JWT_TYPE_ACCESS {
		t.Errorf("Access token type = %s, want %s", accessClaims.Type, constant.JWT_TYPE_ACCESS)
	}

	if accessClaims.User.ID != payload.ID || accessClaims.User.Email != payload.Email {
		t.Errorf("Access token payload = %+v, want %+v", accessClaims.User, payload)
	}
}

func TestVerifyJwtTokenRejectsWrongSecret(t *testing.T) {
	jwtService := NewJwt(config.AuthConfig{JWT_SECRET: "test-secret"}, nil)
	otherService := NewJwt(config.AuthConfig{JWT_SECRET: "other-secret"}, nil)

	_, accessToken, err := jwtService.GenerateRefreshAndAccessToken(JWTPayload{ID: "id1234"})
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := otherService.VerifyJwtToken(*accessToken); err == nil {
		t.Error("VerifyJwtToken accepted a token signed with a different secret")
	}
}
