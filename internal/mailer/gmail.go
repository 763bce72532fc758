package mailer

import (
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type GmailMailer struct {
	fromEmail string
	fromName  string
	host      string
	port      int
	username  string
	password  string
	logger    *zap.SugaredLogger
}

func NewGmailMailer(username, password string, logger *zap.SugaredLogger) *GmailMailer {
	return &GmailMailer{
		fromEmail: username,
		fromName:  FROM_NAME,
		host:      "smtp.gmail.com",
		port:      587,
		username:  username,
		password:  password,
		logger:    logger,
	}
}

func (gm *GmailMailer) Send(templateFile MailTemplateFile, toEmail string, data any) (int, error) {
	return gm.SendWithAttachments(templateFile, toEmail, data, nil)
}

func (gm *GmailMailer) SendWithAttachments(templateFile MailTemplateFile, toEmail string, data any, attachments []Attachment) (int, error) {
	subject, body, err := renderTemplate(templateFile, data)
	if err != nil {
		gm.logger.Errorw("failed to render mail template", "error", err, "templateFile", templateFile)
		return http.StatusInternalServerError, err
	}

	message := gomail.NewMessage()
	message.SetHeader("From", fmt.Sprintf("%s <%s>", gm.fromName, gm.fromEmail))
	message.SetHeader("To", toEmail)
	message.SetHeader("Subject", subject)
	message.SetBody("text/html", body)

	for _, att := range attachments {
		data := att.Data
		message.Attach(att.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}

	dialer := gomail.NewDialer(gm.host, gm.port, gm.username, gm.password)

	if err := dialer.DialAndSend(message); err != nil {
		gm.logger.Errorw("failed to send email", "error", err, "toEmail", toEmail, "templateFile", templateFile)
		return http.StatusInternalServerError, fmt.Errorf("failed to send email: %w", err)
	}

	gm.logger.Infow("email sent successfully", "toEmail", toEmail, "templateFile", templateFile)

	return http.StatusOK, nil
}
