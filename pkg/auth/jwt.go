package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const accessTokenType = "access"

var (
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Claims mirror the access tokens issued by the account service.
type Claims struct {
	Type       string `json:"type"`
	UserType   string `json:"user_type"`
	BusinessID string `json:"business_id,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify resolves a bearer credential to a principal.
// Every failure wraps ErrUnauthenticated.
func (v *Verifier) Verify(token string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !parsed.Valid {
		return Principal{}, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}
	if claims.Type != accessTokenType {
		return Principal{}, fmt.Errorf("%w: not an access token", ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}

	p := Principal{UserID: claims.Subject}
	switch Role(claims.UserType) {
	case RoleBusinessAdmin:
		if claims.BusinessID == "" {
			return Principal{}, fmt.Errorf("%w: business token without business_id", ErrUnauthenticated)
		}
		p.Role = RoleBusinessAdmin
		p.BusinessID = claims.BusinessID
	case RoleUser, "":
		p.Role = RoleUser
	default:
		return Principal{}, fmt.Errorf("%w: unknown user type %q", ErrUnauthenticated, claims.UserType)
	}
	return p, nil
}

// Sign issues an access token for p. The service never issues tokens itself;
// this exists for local tooling and tests.
func (v *Verifier) Sign(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Type:       accessTokenType,
		UserType:   string(p.Role),
		BusinessID: p.BusinessID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
