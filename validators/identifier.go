// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var (
	ErrIdentifierEmpty   = errors.New("no email address or phone number provided")
	ErrInvalidIdentifier = errors.New("invalid email address or phone number provided")
)

var phoneFormatting = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// NormalizeIdentifier turns a raw email address or phone number into the
// canonical form used as the user lookup key. Emails are trimmed and
// lower-cased, phone numbers are parsed against defaultRegion and rendered
// as E.164. The same normalization has to run at OTP issue time and verify
// time or codes will never match
func NormalizeIdentifier(raw, defaultRegion string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrIdentifierEmpty
	}

	if strings.Contains(s, "@") {
		return strings.ToLower(s), nil
	}

	cleaned := phoneFormatting.Replace(s)

	num, err := phonenumbers.Parse(cleaned, defaultRegion)
	if err != nil {
		return "", ErrInvalidIdentifier
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidIdentifier
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// IsEmail reports whether a normalized identifier is an email address as
// opposed to a phone number
func IsEmail(identifier string) bool {
	return strings.Contains(identifier, "@")
}
