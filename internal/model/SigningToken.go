package model

import (
	"errors"
	"time"
)

var (
	ErrSigningTokenUsed    = errors.New("signing token has already been used")
	ErrSigningTokenExpired = errors.New("signing token has expired")
	ErrSigningTokenRevoked = errors.New("signing token has been revoked")
)

// SigningToken is a single-use capability: whoever presents the token string
// may record one signature for one party role on one contract, until the
// token expires, is consumed, or is revoked.
type SigningToken struct {
	BaseModel
	Token          string    `gorm:"type:text;not null;uniqueIndex" json:"-" form:"-"`
	ContractID     string    `gorm:"type:text;not null;index" json:"contractId" form:"-"`
	RecipientEmail string    `gorm:"type:citext;not null" json:"recipientEmail" form:"-"`
	Party          string    `gorm:"type:varchar(50);not null" json:"party" form:"-"`
	ExpiresAt      time.Time `gorm:"type:timestamptz;not null;index" json:"expiresAt" form:"-"`

	Used   bool       `gorm:"not null;default:false" json:"used" form:"-"`
	UsedAt *time.Time `gorm:"type:timestamptz;default:null" json:"usedAt" form:"-"`

	Revoked   bool       `gorm:"not null;default:false" json:"revoked" form:"-"`
	RevokedAt *time.Time `gorm:"type:timestamptz;default:null" json:"revokedAt" form:"-"`

	// Captured at consumption time for audit.
	IPAddress string `gorm:"type:text;default:null" json:"-" form:"-"`

	Contract Contract `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-" form:"-"`
}

func (st SigningToken) TableName() string {
	return "signing_tokens"
}

func (st SigningToken) IsExpired(now time.Time) bool {
	return !now.Before(st.ExpiresAt)
}

// Validate classifies why a token cannot be consumed at the given instant.
// The order is fixed so users always get the most actionable reason:
// revoked before used before expired. Returns nil for a consumable token.
//
// This is the lazy expiry check; the background sweeper only reclaims
// storage and is never relied on for correctness.
func (st SigningToken) Validate(now time.Time) error {
	if st.Revoked {
		return ErrSigningTokenRevoked
	}
	if st.Used {
		return ErrSigningTokenUsed
	}
	if st.IsExpired(now) {
		return ErrSigningTokenExpired
	}
	return nil
}
