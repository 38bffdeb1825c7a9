package auth

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123"

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier(testSecret, "bizqueue-accounts")

	tests := []struct {
		name string
		in   Principal
	}{
		{"consumer", Principal{UserID: "u-1", Role: RoleUser}},
		{"business admin", Principal{UserID: "u-2", Role: RoleBusinessAdmin, BusinessID: "64b000000000000000000001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := v.Sign(tt.in, time.Minute)
			if err != nil {
				t.Fatalf("Sign() error: %v", err)
			}
			got, err := v.Verify(token)
			if err != nil {
				t.Fatalf("Verify() error: %v", err)
			}
			if got != tt.in {
				t.Errorf("Verify() = %+v, want %+v", got, tt.in)
			}
		})
	}
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier(testSecret, "bizqueue-accounts")

	sign := func(claims Claims, method jwt.SigningMethod, key any) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	base := func() Claims {
		return Claims{
			Type:     "access",
			UserType: "user",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u-1",
				Issuer:    "bizqueue-accounts",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
	}

	expired := base()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	refresh := base()
	refresh.Type = "refresh"
	wrongIssuer := base()
	wrongIssuer.Issuer = "someone-else"
	adminNoBusiness := base()
	adminNoBusiness.UserType = "business_admin"
	noExpiry := base()
	noExpiry.ExpiresAt = nil
	unknownRole := base()
	unknownRole.UserType = "superuser"

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", sign(base(), jwt.SigningMethodHS256, []byte("another-secret-entirely"))},
		{"expired", sign(expired, jwt.SigningMethodHS256, []byte(testSecret))},
		{"refresh token", sign(refresh, jwt.SigningMethodHS256, []byte(testSecret))},
		{"wrong issuer", sign(wrongIssuer, jwt.SigningMethodHS256, []byte(testSecret))},
		{"admin without business", sign(adminNoBusiness, jwt.SigningMethodHS256, []byte(testSecret))},
		{"no expiry", sign(noExpiry, jwt.SigningMethodHS256, []byte(testSecret))},
		{"unknown role", sign(unknownRole, jwt.SigningMethodHS256, []byte(testSecret))},
		{"hs512", sign(base(), jwt.SigningMethodHS512, []byte(testSecret))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			if !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestPrincipal_CanManage(t *testing.T) {
	admin := Principal{UserID: "u-2", Role: RoleBusinessAdmin, BusinessID: "b-1"}
	user := Principal{UserID: "u-1", Role: RoleUser}

	if !admin.CanManage("b-1") {
		t.Error("admin should manage own business")
	}
	if admin.CanManage("b-2") {
		t.Error("admin should not manage another business")
	}
	if user.CanManage("b-1") {
		t.Error("consumer should not manage a business")
	}
	if (Principal{}).CanManage("") {
		t.Error("guest should never manage")
	}
}

func TestFromContext_DefaultsToGuest(t *testing.T) {
	p := FromContext(t.Context())
	if !p.IsGuest() {
		t.Errorf("expected guest, got %+v", p)
	}
	if !p.Requester().IsGuest() {
		t.Error("guest principal should map to guest requester")
	}
}
