// Package queue defines message payloads exchanged over the message
// broker and the background consumer that delivers them.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds understood by the consumer.
const (
	KindPasswordReset = "password_reset"
	KindTwoFactorCode = "two_factor_code"
)

// NotificationEvent is published whenever the auth core wants something
// delivered out of band: a password-reset link or a dispatched 2FA code.
// Delivery is fire-and-forget for the publisher; the consumer owns
// failure handling. Channel is "email" or "sms"; SMS events are logged
// by the consumer until a gateway is wired up.
type NotificationEvent struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// NewNotificationEvent stamps a fresh event with a unique ID and the
// current time.
func NewNotificationEvent(kind, channel, recipient, subject, body string) NotificationEvent {
	return NotificationEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Channel:   channel,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}
