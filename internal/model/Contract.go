package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inkwell-labs/inkwell/internal/constant"
)

var (
	ErrContractCompleted = errors.New("contract has already been completed")
	ErrContractNotDraft  = errors.New("contract is no longer a draft")
	ErrPartiesLocked     = errors.New("parties cannot be changed after a signature has been collected")
	ErrUnknownParty      = errors.New("party role is not defined on this contract")
)

// SignaturePlaceholder marks where a party's signature belongs inside a
// content block.
type SignaturePlaceholder struct {
	Party    string `json:"party"`
	Position int    `json:"position"`
}

// ContractBlock is one unit of contract content: display text plus zero or
// more signature placeholders.
type ContractBlock struct {
	Text         string                 `json:"text"`
	Placeholders []SignaturePlaceholder `json:"placeholders,omitempty"`
}

// BlockList is stored as a single jsonb column; blocks are ordered and only
// ever replaced as a whole while the contract is still a draft.
type BlockList []ContractBlock

func (bl BlockList) Value() (driver.Value, error) {
	if bl == nil {
		bl = BlockList{}
	}
	return json.Marshal(bl)
}

func (bl *BlockList) Scan(value any) error {
	if value == nil {
		*bl = BlockList{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return fmt.Errorf("failed to scan BlockList: unexpected type %T", value)
		}
	}

	return json.Unmarshal(bytes, bl)
}

type Contract struct {
	BaseModel
	Title  string                  `gorm:"type:varchar(100);not null" json:"title" form:"title" binding:"required,strNotEmpty,min=1,max=100"`
	Type   string                  `gorm:"type:varchar(50);default:''" json:"type" form:"type"`
	Status constant.ContractStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status" form:"-"`
	Blocks BlockList               `gorm:"type:jsonb;not null;default:'[]'" json:"blocks" form:"blocks"`

	// Creator identity is optional: externally-initiated contracts carry only
	// an email, or nothing at all.
	CreatedBy      string `gorm:"type:text;default:null" json:"createdBy" form:"-"`
	CreatedByEmail string `gorm:"type:citext;default:null" json:"createdByEmail" form:"-"`

	Parties []Party `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"parties" form:"parties"`
}

func (c Contract) TableName() string {
	return "contracts"
}

// RoleDefined reports whether the given role belongs to one of the contract's
// parties.
func (c Contract) RoleDefined(role string) bool {
	for _, p := range c.Parties {
		if p.Role == role {
			return true
		}
	}
	return false
}

// PartyByRole returns the party holding the given role, or nil.
func (c Contract) PartyByRole(role string) *Party {
	for i := range c.Parties {
		if c.Parties[i].Role == role {
			return &c.Parties[i]
		}
	}
	return nil
}

// HasAnySignature reports whether at least one party has signed. Once true,
// the party set is frozen.
func (c Contract) HasAnySignature() bool {
	for _, p := range c.Parties {
		if p.Signed {
			return true
		}
	}
	return false
}

// AllPartiesSigned folds over the full party set; the contract is complete
// iff every party has signed. There are no hidden counters: this is a pure
// function of the persisted party rows.
func (c Contract) AllPartiesSigned() bool {
	if len(c.Parties) == 0 {
		return false
	}
	for _, p := range c.Parties {
		if !p.Signed {
			return false
		}
	}
	return true
}

// NextStatus computes the status the contract should hold given its current
// status and party state. Completed is terminal and never regresses.
func (c Contract) NextStatus() constant.ContractStatus {
	if c.Status == constant.ContractStatusCompleted {
		return constant.ContractStatusCompleted
	}
	if c.Status == constant.ContractStatusPending && c.AllPartiesSigned() {
		return constant.ContractStatusCompleted
	}
	return c.Status
}

// Sendable reports whether the contract can move from draft to pending:
// at least one party must have an email to receive a signing link.
func (c Contract) Sendable() bool {
	if c.Status != constant.ContractStatusDraft {
		return false
	}
	for _, p := range c.Parties {
		if p.Email != "" {
			return true
		}
	}
	return false
}
