// Package utils provides utility functions for the application.
package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// SpecialRewardCodePrefix marks codes minted for special-reward distributions.
const SpecialRewardCodePrefix = "SR"

// NewRedemptionCode mints an 8-hex-character uppercase redemption code.
func NewRedemptionCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate redemption code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// NewSpecialRewardCode mints an SR-prefixed uppercase redemption code.
func NewSpecialRewardCode() (string, error) {
	code, err := NewRedemptionCode()
	if err != nil {
		return "", err
	}
	return SpecialRewardCodePrefix + code, nil
}

// NormalizeCode canonicalizes a redemption code for storage and comparison.
// Codes are written uppercase and compared case-insensitively.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
