// Package otp generates the six digit codes mailed for email verification.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	Min = 100000
	Max = 999999
)

var span = big.NewInt(Max - Min + 1)

// Generate returns a code drawn uniformly from [Min, Max].
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+Min), nil
}
