package model

import (
	"testing"

	"github.com/inkwell-labs/inkwell/internal/constant"
)

func signedParty(role string) Party {
	sigId := "sig-" + role
	return Party{Name: role, Role: role, Signed: true, SignatureID: &sigId}
}

func unsignedParty(role string) Party {
	return Party{Name: role, Role: role, Email: role + "@example.com"}
}

func TestAllPartiesSigned(t *testing.T) {
	tests := []struct {
		name    string
		parties []Party
		want    bool
	}{
		{"No parties", nil, false},
		{"Single unsigned", []Party{unsignedParty("PartyA")}, false},
		{"Single signed", []Party{signedParty("PartyA")}, true},
		{"One of two signed", []Party{signedParty("PartyA"), unsignedParty("PartyB")}, false},
		{"Both signed", []Party{signedParty("PartyA"), signedParty("PartyB")}, true},
		{"Three parties, last unsigned", []Party{signedParty("A"), signedParty("B"), unsignedParty("C")}, false},
		{"Three parties, all signed", []Party{signedParty("A"), signedParty("B"), signedParty("C")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Contract{Parties: tt.parties}
			if got := c.AllPartiesSigned(); got != tt.want {
				t.Errorf("AllPartiesSigned() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  constant.ContractStatus
		parties []Party
		want    constant.ContractStatus
	}{
		{"Draft stays draft even when all signed", constant.ContractStatusDraft, []Party{signedParty("A")}, constant.ContractStatusDraft},
		{"Pending with unsigned party stays pending", constant.ContractStatusPending, []Party{signedParty("A"), unsignedParty("B")}, constant.ContractStatusPending},
		{"Pending with all signed completes", constant.ContractStatusPending, []Party{signedParty("A"), signedParty("B")}, constant.ContractStatusCompleted},
		{"Completed never regresses", constant.ContractStatusCompleted, []Party{unsignedParty("A")}, constant.ContractStatusCompleted},
		{"Pending with no parties stays pending", constant.ContractStatusPending, nil, constant.ContractStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Contract{Status: tt.status, Parties: tt.parties}
			if got := c.NextStatus(); got != tt.want {
				t.Errorf("NextStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSendable(t *testing.T) {
	tests := []struct {
		name    string
		status  constant.ContractStatus
		parties []Party
		want    bool
	}{
		{"Draft with emailed party", constant.ContractStatusDraft, []Party{unsignedParty("A")}, true},
		{"Draft with no party emails", constant.ContractStatusDraft, []Party{{Name: "A", Role: "A"}}, false},
		{"Draft with no parties", constant.ContractStatusDraft, nil, false},
		{"Already pending", constant.ContractStatusPending, []Party{unsignedParty("A")}, false},
		{"Already completed", constant.ContractStatusCompleted, []Party{unsignedParty("A")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Contract{Status: tt.status, Parties: tt.parties}
			if got := c.Sendable(); got != tt.want {
				t.Errorf("Sendable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoleDefined(t *testing.T) {
	c := Contract{Parties: []Party{unsignedParty("PartyA"), unsignedParty("PartyB")}}

	if !c.RoleDefined("PartyA") {
		t.Error("RoleDefined(PartyA) = false, want true")
	}
	if c.RoleDefined("PartyC") {
		t.Error("RoleDefined(PartyC) = true, want false")
	}

	p := c.PartyByRole("PartyB")
	if p == nil || p.Role != "PartyB" {
		t.Errorf("PartyByRole(PartyB) = %v, want PartyB", p)
	}
	if c.PartyByRole("PartyC") != nil {
		t.Error("PartyByRole(PartyC) should be nil")
	}
}
