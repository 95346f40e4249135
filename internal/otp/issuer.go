package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/votehubph/backend/internal/logger"
	"github.com/votehubph/backend/internal/metrics"
)

// Issuer generates codes, stores them under a key (the email address) and
// hands them to a Sender.
type Issuer struct {
	store  Store
	sender Sender
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(store Store, sender Sender, ttl time.Duration) *Issuer {
	return &Issuer{store: store, sender: sender, ttl: ttl, now: time.Now}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// newCode returns a six digit code in [100000, 999999).
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(899999))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Issue replaces any pending code for key and delivers the new one to dest.
func (i *Issuer) Issue(ctx context.Context, key, dest string) error {
	code, err := newCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	key = normalizeKey(key)
	e := Entry{Code: code, ExpiresAt: i.now().Add(i.ttl)}
	if err := i.store.Save(ctx, key, e); err != nil {
		return err
	}
	if err := i.sender.Send(ctx, dest, code); err != nil {
		_ = i.store.Delete(ctx, key)
		return fmt.Errorf("send otp: %w", err)
	}
	metrics.OTPIssuedTotal.Inc()
	logger.L().Info("otp_issued", "key", key, "expires_at", e.ExpiresAt)
	return nil
}

// Verify consumes the pending code for key. A mismatch leaves the code in
// place so the user can retry.
func (i *Issuer) Verify(ctx context.Context, key, code string) error {
	key = normalizeKey(key)
	e, err := i.store.Get(ctx, key)
	if err != nil {
		metrics.OTPVerifyTotal.WithLabelValues("not_found").Inc()
		return err
	}
	if !i.now().Before(e.ExpiresAt) {
		_ = i.store.Delete(ctx, key)
		metrics.OTPVerifyTotal.WithLabelValues("expired").Inc()
		return ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(e.Code), []byte(strings.TrimSpace(code))) != 1 {
		metrics.OTPVerifyTotal.WithLabelValues("mismatch").Inc()
		return ErrMismatch
	}
	metrics.OTPVerifyTotal.WithLabelValues("ok").Inc()
	return i.store.Delete(ctx, key)
}
