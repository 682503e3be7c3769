package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func activeInvite(now time.Time) Invite {
	return Invite{
		ID:        1,
		RoomID:    1,
		ExpiresAt: now.Add(24 * time.Hour),
		MaxUses:   10,
		UsedCount: 3,
	}
}

func TestRedeemableAt(t *testing.T) {
	now := time.Now().UTC()

	inv := activeInvite(now)
	assert.NoError(t, inv.RedeemableAt(now))
}

func TestRedeemableAtRevoked(t *testing.T) {
	now := time.Now().UTC()
	revoked := now.Add(-time.Hour)

	inv := activeInvite(now)
	inv.RevokedAt = &revoked
	assert.ErrorIs(t, inv.RedeemableAt(now), ErrInviteRevoked)
}

func TestRedeemableAtExpired(t *testing.T) {
	now := time.Now().UTC()

	inv := activeInvite(now)
	inv.ExpiresAt = now.Add(-time.Minute)
	assert.ErrorIs(t, inv.RedeemableAt(now), ErrInviteExpired)

	// The expiry instant itself is no longer redeemable.
	inv.ExpiresAt = now
	assert.ErrorIs(t, inv.RedeemableAt(now), ErrInviteExpired)
}

func TestRedeemableAtExhausted(t *testing.T) {
	now := time.Now().UTC()

	inv := activeInvite(now)
	inv.UsedCount = inv.MaxUses
	assert.ErrorIs(t, inv.RedeemableAt(now), ErrInviteExhausted)
}

func TestRedeemableAtFailureOrder(t *testing.T) {
	// When several terminal states hold at once, revoked wins over
	// expired, and expired wins over exhausted.
	now := time.Now().UTC()
	revoked := now.Add(-time.Hour)

	inv := activeInvite(now)
	inv.RevokedAt = &revoked
	inv.ExpiresAt = now.Add(-time.Hour)
	inv.UsedCount = inv.MaxUses
	assert.ErrorIs(t, inv.RedeemableAt(now), ErrInviteRevoked)

	inv.RevokedAt = nil
	assert.ErrorIs(t, inv.RedeemableAt(now), ErrInviteExpired)
}
