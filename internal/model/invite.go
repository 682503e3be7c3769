package model

import (
	"errors"
	"time"
)

// Invite lifecycle errors. Redemption failures are terminal: the client
// must obtain a fresh invite, there is nothing to retry.
var (
	ErrInviteRevoked   = errors.New("invite revoked")
	ErrInviteExpired   = errors.New("invite expired")
	ErrInviteExhausted = errors.New("invite exhausted")
)

// Invite is a usage-bounded, expiring credential that grants EDITOR
// membership in a room when redeemed. Only SHA-256 hashes of the token and
// the optional short numeric code are persisted; the raw values exist
// exactly once, in the create response.
//
// Fields:
//  ID        – primary key identifier.
//  RoomID    – room the invite grants access to.
//  CreatedBy – user who issued the invite (an OWNER).
//  TokenHash – peppered SHA-256 hex of the opaque token.
//  CodeHash  – peppered SHA-256 hex of the 6-digit code (nullable).
//  ExpiresAt – expiry timestamp.
//  MaxUses   – maximum number of new-membership redemptions.
//  UsedCount – redemptions consumed so far.
//  RevokedAt – when the invite was revoked (null while active).
//  CreatedAt – creation timestamp.
type Invite struct {
	ID        uint64     // room_invites.id
	RoomID    uint64     // room_invites.room_id
	CreatedBy uint64     // room_invites.created_by
	TokenHash string     // room_invites.token_hash
	CodeHash  *string    // room_invites.code_hash (nullable)
	ExpiresAt time.Time  // room_invites.expires_at
	MaxUses   uint32     // room_invites.max_uses
	UsedCount uint32     // room_invites.used_count
	RevokedAt *time.Time // room_invites.revoked_at (nullable)
	CreatedAt time.Time  // room_invites.created_at
}

// RedeemableAt reports whether the invite can still be redeemed at the
// given instant. The checks run in a fixed order so the caller always
// surfaces the most specific failure: revoked, then expired, then
// exhausted.
func (i *Invite) RedeemableAt(now time.Time) error {
	if i.RevokedAt != nil {
		return ErrInviteRevoked
	}
	if !now.Before(i.ExpiresAt) {
		return ErrInviteExpired
	}
	if i.UsedCount >= i.MaxUses {
		return ErrInviteExhausted
	}
	return nil
}
