package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSigner_RoundTrip(t *testing.T) {
	s := NewStateSigner("secret", 10*time.Minute)

	state, err := s.Issue("naver")
	require.NoError(t, err)
	assert.NoError(t, s.Verify(state, "naver"))

	other, err := s.Issue("naver")
	require.NoError(t, err)
	assert.NotEqual(t, state, other, "each state carries a fresh nonce")
}

func TestStateSigner_Rejects(t *testing.T) {
	s := NewStateSigner("secret", 10*time.Minute)
	state, err := s.Issue("google")
	require.NoError(t, err)

	assert.ErrorIs(t, s.Verify(state, "kakao"), ErrInvalidState, "provider mismatch")
	assert.ErrorIs(t, NewStateSigner("other", time.Minute).Verify(state, "google"), ErrInvalidState, "bad signature")
	assert.ErrorIs(t, s.Verify("garbage", "google"), ErrInvalidState)
	assert.ErrorIs(t, s.Verify("", "google"), ErrInvalidState)

	s.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	assert.ErrorIs(t, s.Verify(state, "google"), ErrInvalidState, "expired")
}
