package domain

import "time"

// CredentialToken authorizes exactly one password-set operation. Only the
// SHA-256 hex digest of the raw token is persisted.
type CredentialToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	AccountID string     `gorm:"size:16;not null;index:idx_credential_tokens_account" json:"account_id"`
	Account   *Account   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	TokenHash string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	Used      bool       `gorm:"not null;default:false" json:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (t *CredentialToken) Redeemable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
