package model

import "errors"

var ErrPartyAlreadySigned = errors.New("party has already signed this contract")

// Party is one named signer attached to a contract. Roles are free-form
// ("PartyA", "Landlord", ...) but must be unique within a contract; the
// signing flow addresses parties by role.
type Party struct {
	BaseModel
	ContractID string `gorm:"type:text;not null;index" json:"contractId" form:"-"`
	Name       string `gorm:"type:varchar(100);not null" json:"name" form:"name" binding:"required,strNotEmpty"`
	Email      string `gorm:"type:citext;default:null" json:"email" form:"email" binding:"omitempty,email"`
	Role       string `gorm:"type:varchar(50);not null" json:"role" form:"role" binding:"required,strNotEmpty"`
	Signed     bool   `gorm:"not null;default:false" json:"signed" form:"-"`

	// Set atomically with Signed; a signed party always resolves to exactly
	// one signature record.
	SignatureID *string    `gorm:"type:text;default:null" json:"signatureId" form:"-"`
	Signature   *Signature `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-" form:"-"`
}

func (p Party) TableName() string {
	return "parties"
}
