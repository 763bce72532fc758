package mailer

import "embed"

const (
	FROM_NAME = "Inkwell"
	MAX_RETRY = 3
)

type MailTemplateFile string

const (
	TemplateContractReady     MailTemplateFile = "templates/contract_ready.tmpl"
	TemplateContractFinalized MailTemplateFile = "templates/contract_finalized.tmpl"
)

//go:embed "templates"
var FS embed.FS

// Attachment is a fully materialized file to attach; both mailers encode it
// for their transport themselves.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Client interface {
	Send(templateFile MailTemplateFile, toEmail string, data any) (int, error)
	SendWithAttachments(templateFile MailTemplateFile, toEmail string, data any, attachments []Attachment) (int, error)
}

// ContractReadyData fills the signing-invitation template. SigningURL embeds
// the single-use token and is the only capability the recipient needs.
type ContractReadyData struct {
	ContractTitle string `json:"contractTitle"`
	RecipientName string `json:"recipientName"`
	SenderName    string `json:"senderName"`
	SigningURL    string `json:"signingURL"`
	ExpiresAt     string `json:"expiresAt"`
}

// ContractFinalizedData fills the fully-executed notification template.
type ContractFinalizedData struct {
	ContractTitle string `json:"contractTitle"`
	RecipientName string `json:"recipientName"`
	VerifyURL     string `json:"verifyURL"`
	CompletedAt   string `json:"completedAt"`
}
