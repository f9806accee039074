package jwt

import "testing"

func TestAccessTokenRoundTrip(t *testing.T) {
	Init("unit-test-secret-0123456789abcdef", 5, 1)

	tok, err := GenerateAccessToken("U1", "alumni")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "U1" || claims.Role != "alumni" || claims.Subject != SubjectAccess {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRefreshTokenCarriesID(t *testing.T) {
	Init("unit-test-secret-0123456789abcdef", 5, 1)

	tok, id, err := GenerateRefreshToken("U2", "student")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.TokenID != id || claims.Subject != SubjectRefresh {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	Init("secret-a-0123456789abcdef0123456789", 5, 1)
	tok, err := GenerateAccessToken("U1", "student")
	if err != nil {
		t.Fatal(err)
	}
	Init("secret-b-0123456789abcdef0123456789", 5, 1)
	if _, err := ParseToken(tok); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}
