package otp

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu    sync.Mutex
	to    string
	codes []string
	err   error
}

func (c *captureSender) Send(_ context.Context, to, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.to = to
	c.codes = append(c.codes, code)
	return nil
}

func (c *captureSender) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[len(c.codes)-1]
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func setup(t *testing.T) (*Issuer, *MemoryStore, *captureSender, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2025, 5, 12, 8, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(time.Hour)
	store.now = clk.now
	t.Cleanup(store.Close)
	sender := &captureSender{}
	iss := NewIssuer(store, sender, 10*time.Minute)
	iss.now = clk.now
	return iss, store, sender, clk
}

func TestCodeShape(t *testing.T) {
	re := regexp.MustCompile(`^[1-9][0-9]{5}$`)
	for i := 0; i < 200; i++ {
		code, err := newCode()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}
}

func TestIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	iss, store, sender, _ := setup(t)

	require.NoError(t, iss.Issue(ctx, " Juan@Example.com ", "+639171234567"))
	assert.Equal(t, "+639171234567", sender.to)

	require.NoError(t, iss.Verify(ctx, "juan@example.com", sender.last()))
	assert.Zero(t, store.Len(), "code is consumed")

	assert.ErrorIs(t, iss.Verify(ctx, "juan@example.com", sender.last()), ErrNotFound)
}

func TestVerifyMismatchKeepsCode(t *testing.T) {
	ctx := context.Background()
	iss, _, sender, _ := setup(t)
	require.NoError(t, iss.Issue(ctx, "a@b.ph", "a@b.ph"))

	wrong := "000000"
	assert.ErrorIs(t, iss.Verify(ctx, "a@b.ph", wrong), ErrMismatch)
	assert.NoError(t, iss.Verify(ctx, "a@b.ph", sender.last()))
}

func TestVerifyExpired(t *testing.T) {
	ctx := context.Background()
	iss, store, sender, clk := setup(t)
	require.NoError(t, iss.Issue(ctx, "a@b.ph", "a@b.ph"))

	clk.t = clk.t.Add(10 * time.Minute)
	assert.ErrorIs(t, iss.Verify(ctx, "a@b.ph", sender.last()), ErrExpired)
	assert.Zero(t, store.Len())
}

func TestReissueReplacesCode(t *testing.T) {
	ctx := context.Background()
	iss, store, sender, _ := setup(t)
	require.NoError(t, iss.Issue(ctx, "a@b.ph", "a@b.ph"))
	first := sender.last()
	require.NoError(t, iss.Issue(ctx, "a@b.ph", "a@b.ph"))

	assert.Equal(t, 1, store.Len())
	if first != sender.last() {
		assert.ErrorIs(t, iss.Verify(ctx, "a@b.ph", first), ErrMismatch)
	}
	assert.NoError(t, iss.Verify(ctx, "a@b.ph", sender.last()))
}

func TestIssueSendFailureDropsCode(t *testing.T) {
	iss, store, sender, _ := setup(t)
	sender.err = errors.New("sms down")

	assert.Error(t, iss.Issue(context.Background(), "a@b.ph", "+63"))
	assert.Zero(t, store.Len())
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{t: time.Date(2025, 5, 12, 8, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(time.Hour)
	defer s.Close()
	s.now = clk.now

	require.NoError(t, s.Save(ctx, "old", Entry{Code: "111111", ExpiresAt: clk.t.Add(time.Minute)}))
	require.NoError(t, s.Save(ctx, "new", Entry{Code: "222222", ExpiresAt: clk.t.Add(time.Hour)}))

	clk.t = clk.t.Add(2 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	_, err := s.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestMemoryStoreJanitorRuns(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(5 * time.Millisecond)
	defer s.Close()

	require.NoError(t, s.Save(ctx, "k", Entry{Code: "123456", ExpiresAt: time.Now().Add(-time.Second)}))
	assert.Eventually(t, func() bool { return s.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	s.Close()
}
