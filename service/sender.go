// Package service contains the out-of-band delivery and directory sync
// logic that sits between the HTTP handlers and the outside world
package service

import (
	"privportal/privacy-api/config"
	"privportal/privacy-api/validators"
)

// Sender delivers verification codes over the channel matching the
// identifier: SMTP for email addresses, the SMS gateway for phone numbers.
type Sender struct {
	cfg *config.Config
}

func NewSender(cfg *config.Config) *Sender {
	return &Sender{cfg: cfg}
}

// SendCode delivers a verification code to a normalized identifier. Mock
// mode is handled by the caller, this always attempts real delivery
func (s *Sender) SendCode(contact, code string) error {
	if validators.IsEmail(contact) {
		return s.sendCodeMail(contact, code)
	}

	return s.sendCodeSMS(contact, code)
}
