package registration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cashflow-api/internal/domain"
)

type mailer interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// deliveryError marks a code that was stored but could not be sent.
type deliveryError struct{ err error }

func (e *deliveryError) Error() string { return "deliver code: " + e.err.Error() }
func (e *deliveryError) Unwrap() error { return e.err }

// Issuer creates codes, stores them in the cache and delivers them. Delivery
// happens after the cache write and never rolls it back.
type Issuer struct {
	cache    *Cache
	mailer   mailer
	sms      smsSender
	generate func() (string, error)
	now      func() time.Time
}

// Issue assigns a fresh code valid for ttl to p and stores it, replacing any
// previous entry for the same email. A *deliveryError means the entry is
// stored but the code was not sent.
func (i *Issuer) Issue(ctx context.Context, p domain.PendingRegistration, ttl time.Duration) (domain.PendingRegistration, error) {
	code, err := i.generate()
	if err != nil {
		return p, err
	}
	p.OTP = code
	p.ExpiresAt = i.now().Add(ttl)
	i.cache.Put(p.Email, p)
	return p, i.deliver(ctx, p)
}

// Reissue replaces the code of the existing entry for email.
func (i *Issuer) Reissue(ctx context.Context, email string, ttl time.Duration) error {
	code, err := i.generate()
	if err != nil {
		return err
	}
	p, ok := i.cache.Refresh(email, code, i.now().Add(ttl))
	if !ok {
		return fmt.Errorf("no pending registration for %s: %w", email, domain.ErrNoPendingRegistration)
	}
	return i.deliver(ctx, p)
}

func (i *Issuer) deliver(ctx context.Context, p domain.PendingRegistration) error {
	minutes := int(p.ExpiresAt.Sub(i.now()).Round(time.Minute).Minutes())
	body := fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires in %d minutes.\n", p.FirstName, p.OTP, minutes)
	if err := i.mailer.SendEmail(p.Email, "Email Verification OTP", body); err != nil {
		return &deliveryError{err: fmt.Errorf("send otp email: %w", err)}
	}
	if i.sms != nil && p.Phone != "" {
		msg := fmt.Sprintf("Your verification code is %s", p.OTP)
		if err := i.sms.SendSMS(ctx, p.Phone, msg); err != nil {
			slog.Warn("failed to send otp sms", "email", p.Email, "err", err)
		}
	}
	return nil
}
