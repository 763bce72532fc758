package mailer

import (
	"strings"
	"testing"
)

func TestRenderContractReadyTemplate(t *testing.T) {
	data := ContractReadyData{
		ContractTitle: "Office Lease Agreement",
		RecipientName: "Alice",
		SenderName:    "Bob",
		SigningURL:    "https://app.example.com/signing/abc123",
		ExpiresAt:     "2026-01-10 15:04 UTC",
	}

	subject, body, err := renderTemplate(TemplateContractReady, data)
	if err != nil {
		t.Fatalf("renderTemplate() error = %v", err)
	}

	if !strings.Contains(subject, data.ContractTitle) {
		t.Errorf("subject %q does not mention the contract title", subject)
	}
	if !strings.Contains(body, data.SigningURL) {
		t.Error("body does not contain the signing URL")
	}
	if !strings.Contains(body, data.ExpiresAt) {
		t.Error("body does not mention the expiry")
	}
	if !strings.Contains(body, data.SenderName) {
		t.Error("body does not mention the sender")
	}
}

func TestRenderContractReadyTemplateWithoutSender(t *testing.T) {
	data := ContractReadyData{
		ContractTitle: "NDA",
		RecipientName: "Alice",
		SigningURL:    "https://app.example.com/signing/abc123",
		ExpiresAt:     "2026-01-10 15:04 UTC",
	}

	_, body, err := renderTemplate(TemplateContractReady, data)
	if err != nil {
		t.Fatalf("renderTemplate() error = %v", err)
	}

	if !strings.Contains(body, "You have been invited") {
		t.Error("body should fall back to the senderless invitation wording")
	}
}

func TestRenderContractFinalizedTemplate(t *testing.T) {
	data := ContractFinalizedData{
		ContractTitle: "Office Lease Agreement",
		RecipientName: "Alice",
		VerifyURL:     "https://app.example.com/verify/contract-1",
		CompletedAt:   "2026-01-08 09:30 UTC",
	}

	subject, body, err := renderTemplate(TemplateContractFinalized, data)
	if err != nil {
		t.Fatalf("renderTemplate() error = %v", err)
	}

	if !strings.Contains(subject, "fully executed") {
		t.Errorf("subject %q does not announce full execution", subject)
	}
	if !strings.Contains(body, data.VerifyURL) {
		t.Error("body does not contain the verification URL")
	}
}
