// Package security contains everything related to the security of user data
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"regexp"
)

// CodeLength is the fixed number of digits in a verification code
const CodeLength = 6

var codePattern = regexp.MustCompile(`^\d{6}$`)

var codeSpace = big.NewInt(1_000_000)

// GenerateCode returns a random zero-padded 6 digit verification code
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ValidCodeFormat checks the shape of a submitted code before any database
// lookup happens. Anything that isn't exactly 6 digits is rejected up front
func ValidCodeFormat(code string) bool {
	return codePattern.MatchString(code)
}

// CodesMatch compares a submitted code against the stored one in constant
// time
func CodesMatch(submitted, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}
