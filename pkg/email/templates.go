package email

import (
	"bytes"
	"html/template"
)

const notificationTemplate = `
<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; color: #222;">
    <h2>{{.Title}}</h2>
    <p>Hi {{.Name}},</p>
    <p>{{.Body}}</p>
    <p style="color: #888; font-size: 12px;">
      You are receiving this because of activity on one of your deliveries.
    </p>
  </body>
</html>`

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	NotificationTmpl *template.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	notificationTmpl, err := template.New("notification").Parse(notificationTemplate)
	if err != nil {
		return nil, err
	}
	return &TemplateManager{NotificationTmpl: notificationTmpl}, nil
}

// NotificationData holds the dynamic data for a notification email.
type NotificationData struct {
	Name  string
	Title string
	Body  string
}

// GenerateNotificationEmailHTML executes the notification template.
func (tm *TemplateManager) GenerateNotificationEmailHTML(data NotificationData) (string, error) {
	var body bytes.Buffer
	if err := tm.NotificationTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}
