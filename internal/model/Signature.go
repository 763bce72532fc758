package model

import "time"

// Signature is an append-only record of one consumption event. It is never
// mutated or deleted by the normal signing flow.
type Signature struct {
	BaseModel
	ContractID    string    `gorm:"type:text;not null;index" json:"contractId" form:"-"`
	PartyEmail    string    `gorm:"type:citext;not null" json:"partyEmail" form:"-"`
	PartyRole     string    `gorm:"type:varchar(50);not null" json:"partyRole" form:"-"`
	SignatureData string    `gorm:"type:text;not null" json:"-" form:"signatureData" binding:"required"`
	IPAddress     string    `gorm:"type:text;default:null" json:"-" form:"-"`
	SignedAt      time.Time `gorm:"type:timestamptz;not null" json:"signedAt" form:"-"`
}

func (s Signature) TableName() string {
	return "signatures"
}
