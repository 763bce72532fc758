package mailer

import (
	"bytes"
	"html/template"
)

// renderTemplate executes the "subject" and "body" blocks of an embedded mail
// template. Shared by both mailer implementations.
func renderTemplate(templateFile MailTemplateFile, data any) (subject string, body string, err error) {
	tmpl, err := template.ParseFS(FS, string(templateFile))
	if err != nil {
		return "", "", err
	}

	subjectBuf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subjectBuf, "subject", data); err != nil {
		return "", "", err
	}

	bodyBuf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(bodyBuf, "body", data); err != nil {
		return "", "", err
	}

	return subjectBuf.String(), bodyBuf.String(), nil
}
