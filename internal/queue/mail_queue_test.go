package queue

import (
	"encoding/json"
	"testing"

	"github.com/inkwell-labs/inkwell/internal/mailer"
)

func TestNewContractReadyMailJob(t *testing.T) {
	data := ContractReadyJobData{
		ContractID: "contract-1",
		TokenID:    "token-1",
		ContractReadyData: mailer.ContractReadyData{
			ContractTitle: "NDA",
			RecipientName: "Alice",
			SigningURL:    "https://app.example.com/signing/abc",
			ExpiresAt:     "2026-01-10 15:04 UTC",
		},
	}

	payload, err := NewContractReadyMailJob("alice@example.com", data)
	if err != nil {
		t.Fatalf("NewContractReadyMailJob() error = %v", err)
	}

	if payload.ToEmail != "alice@example.com" {
		t.Errorf("ToEmail = %s, want alice@example.com", payload.ToEmail)
	}
	if payload.TemplateFile != mailer.TemplateContractReady {
		t.Errorf("TemplateFile = %s, want %s", payload.TemplateFile, mailer.TemplateContractReady)
	}
	if payload.Try != 0 {
		t.Errorf("Try = %d, want 0", payload.Try)
	}

	// The consumer must be able to recover the exact job data.
	var decoded ContractReadyJobData
	if err := json.Unmarshal(payload.Data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal job data: %v", err)
	}
	if decoded.ContractID != data.ContractID || decoded.TokenID != data.TokenID || decoded.SigningURL != data.SigningURL {
		t.Errorf("round-tripped job data = %+v, want %+v", decoded, data)
	}
}

func TestNewContractFinalizedMailJob(t *testing.T) {
	data := ContractFinalizedJobData{
		ContractID: "contract-1",
		ContractFinalizedData: mailer.ContractFinalizedData{
			ContractTitle: "NDA",
			RecipientName: "Bob",
			VerifyURL:     "https://app.example.com/verify/contract-1",
		},
	}

	payload, err := NewContractFinalizedMailJob("bob@example.com", data)
	if err != nil {
		t.Fatalf("NewContractFinalizedMailJob() error = %v", err)
	}

	if payload.TemplateFile != mailer.TemplateContractFinalized {
		t.Errorf("TemplateFile = %s, want %s", payload.TemplateFile, mailer.TemplateContractFinalized)
	}

	var decoded ContractFinalizedJobData
	if err := json.Unmarshal(payload.Data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal job data: %v", err)
	}
	if decoded.ContractID != data.ContractID || decoded.VerifyURL != data.VerifyURL {
		t.Errorf("round-tripped job data = %+v, want %+v", decoded, data)
	}
}
