package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

type smsPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type smsResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Sender) sendCodeSMS(sendTo, code string) error {
	payload := smsPayload{
		To:   sendTo,
		Body: fmt.Sprintf("Your verification code is %v. It expires in %v minutes.", code, int(s.cfg.OTP.Expiry.Minutes())),
	}

	jsonBody, _ := json.Marshal(payload)

	req, err := http.NewRequest(http.MethodPost, s.cfg.SMS.GatewayURL, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.SMS.Token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var res smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("failed to decode SMS gateway response, %w", err)
	}

	if resp.StatusCode != http.StatusOK || !res.Success {
		return fmt.Errorf("SMS gateway rejected the message, %v", res.Error)
	}

	return nil
}
