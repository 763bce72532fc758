package mailer

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/inkwell-labs/inkwell/internal/util"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type SendGridMailer struct {
	fromEmail string
	client    *sendgrid.Client
	isSandBox bool
	logger    *zap.SugaredLogger
}

func NewSendgrid(apiKey string, fromEmail string, isProduction bool, logger *zap.SugaredLogger) *SendGridMailer {
	// For unit test
	if logger == nil {
		logger = util.NewLogger()
	}

	client := sendgrid.NewSendClient(apiKey)

	return &SendGridMailer{
		fromEmail: fromEmail,
		client:    client,
		// Sandbox mode is only used to validate your request. The email will never be delivered while this feature is enabled!
		isSandBox: !isProduction,
		logger:    logger,
	}
}

func (m SendGridMailer) Send(templateFile MailTemplateFile, toEmail string, data any) (int, error) {
	return m.SendWithAttachments(templateFile, toEmail, data, nil)
}

func (m SendGridMailer) SendWithAttachments(templateFile MailTemplateFile, toEmail string, data any, attachments []Attachment) (int, error) {
	from := mail.NewEmail(FROM_NAME, m.fromEmail)
	to := mail.NewEmail(toEmail, toEmail)

	subject, body, err := renderTemplate(templateFile, data)
	if err != nil {
		m.logger.Errorw("failed to render mail template", "error", err, "templateFile", templateFile)
		return -1, err
	}

	message := mail.NewSingleEmail(from, subject, to, "", body)

	message.SetMailSettings(&mail.MailSettings{
		SandboxMode: &mail.Setting{
			Enable: &m.isSandBox,
		},
	})

	for _, att := range attachments {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(att.Data))
		attachment.SetType(att.ContentType)
		attachment.SetFilename(att.Filename)
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	var lastErr error
	for i := 0; i < MAX_RETRY; i++ {
		response, err := m.client.Send(message)
		if err != nil {
			lastErr = err
			// exponential backoff
			time.Sleep(time.Second * time.Duration(i+1))
			continue
		}

		return response.StatusCode, nil
	}

	m.logger.Errorw("failed to send email", "attempts", MAX_RETRY, "error", lastErr, "toEmail", toEmail)

	return -1, fmt.Errorf("failed to send email after %d attempts: %w", MAX_RETRY, lastErr)
}
