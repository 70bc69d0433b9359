package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// PurposeVerifyEmail marks tokens that may only activate an account
const PurposeVerifyEmail = "verify_email"

const issuer = "loanportal"

// VerificationClaims represents the email verification token claims
type VerificationClaims struct {
	UserID      uint   `json:"uid"`
	Purpose     string `json:"purpose"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// GenerateVerificationToken signs a token bound to one account and to the
// fingerprint of its current credentials.
func GenerateVerificationToken(userID uint, fingerprint, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := VerificationClaims{
		UserID:      userID,
		Purpose:     PurposeVerifyEmail,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateVerificationToken validates a verification token and returns claims
func ValidateVerificationToken(tokenString, secret string) (*VerificationClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &VerificationClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*VerificationClaims)
	if !ok || !token.Valid || claims.Purpose != PurposeVerifyEmail {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
