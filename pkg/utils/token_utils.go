package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"carryconnect/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateSecureToken creates a random, URL-safe string.
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

var otpMax = big.NewInt(1000000)

// GenerateOTP produces a 6-digit handoff confirmation code, left-padded
// with zeros, drawn uniformly from [000000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", fmt.Errorf("rand.Int failed: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

var otpPattern = regexp.MustCompile(`^\d{6}$`)

// IsOTPFormat reports whether s looks like an OTP: exactly 6 ASCII digits.
func IsOTPFormat(s string) bool {
	return otpPattern.MatchString(s)
}

// GenerateAccessToken signs a JWT for the given user.
func GenerateAccessToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("utils.GenerateAccessToken: %w", err)
	}
	return signed, nil
}
