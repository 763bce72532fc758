package constant

// ContractStatus follows the contract through its lifecycle. Draft until the
// owner sends it out, pending while any required signature is outstanding,
// completed once every party has signed. Completed is terminal.
type ContractStatus string

const (
	ContractStatusDraft     ContractStatus = "draft"
	ContractStatusPending   ContractStatus = "pending"
	ContractStatusCompleted ContractStatus = "completed"
)

func (s ContractStatus) Valid() bool {
	switch s {
	case ContractStatusDraft, ContractStatusPending, ContractStatusCompleted:
		return true
	}
	return false
}

// Signing-token strings come from nanoid. 32 characters over a 64-symbol
// alphabet is ~190 bits of randomness, comfortably above the 128-bit floor
// required for a 72-hour validity window.
const SIGNING_TOKEN_LENGTH = 32

// How many times token issuance retries when the generated string collides
// with an existing row before giving up with a conflict error.
const SIGNING_TOKEN_MAX_GENERATE_ATTEMPTS = 3
