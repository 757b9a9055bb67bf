package service

import (
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

func (s *Sender) sendCodeMail(sendTo, code string) error {
	from := s.cfg.Mail.Sender
	if sendTo == from {
		return errors.New("invalid email address")
	}

	m := gomail.NewMessage()

	m.SetHeader("From", from)
	m.SetHeader("To", sendTo)
	m.SetHeader("Subject", "Your verification code")
	m.SetBody("text/html", fmt.Sprintf(
		"Your verification code is <b>%v</b>.<br><br>It expires in %v minutes. If you didn't request it you can ignore this email.",
		code, int(s.cfg.OTP.Expiry.Minutes())))

	d := gomail.NewDialer(s.cfg.Mail.Host, s.cfg.Mail.Port, from, s.cfg.Mail.Password)

	if err := d.DialAndSend(m); err != nil {
		return err
	}

	return nil
}
