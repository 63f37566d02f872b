package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"github.com/plotwatch/plotwatch/internal/alerting/model"
	"github.com/plotwatch/plotwatch/internal/config"
)

// sendMailFn matches smtp.SendMail, injectable for tests.
type sendMailFn func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailChannel delivers alerts over SMTP to a configured recipient list.
type EmailChannel struct {
	cfg      config.EmailConfig
	sendMail sendMailFn
}

func NewEmailChannel(cfg config.EmailConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg, sendMail: smtp.SendMail}
}

func (e *EmailChannel) Name() string { return "email" }

// Send renders the HTML alert template and submits it over SMTP.
func (e *EmailChannel) Send(ctx context.Context, alert *model.Alert) (string, error) {
	if !e.cfg.Enabled {
		return "", errors.New("email delivery disabled")
	}
	if len(e.cfg.Recipients) == 0 {
		return "", errors.New("no email recipients configured")
	}

	body, err := renderEmailBody(alert)
	if err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}

	subject := fmt.Sprintf("Farm Alert: %s - %s", strings.ToUpper(string(alert.Severity)), alert.AlertType)
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(e.cfg.Recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if e.cfg.User != "" {
		auth = smtp.PlainAuth("", e.cfg.User, e.cfg.Password, e.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)

	// smtp.SendMail has no context support; run it in a goroutine so a
	// hanging server cannot outlive the caller's deadline.
	done := make(chan error, 1)
	go func() {
		done <- e.sendMail(addr, auth, e.cfg.From, e.cfg.Recipients, msg.Bytes())
	}()
	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("smtp send: %w", err)
		}
		return fmt.Sprintf("sent to %d recipients", len(e.cfg.Recipients)), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

var severityColors = map[model.Severity]string{
	model.SeverityLow:      "#10b981",
	model.SeverityMedium:   "#f59e0b",
	model.SeverityHigh:     "#ef4444",
	model.SeverityCritical: "#dc2626",
}

var emailTemplate = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Farm Alert</title>
</head>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: {{.Color}}; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0;">
      <h1>Farm Alert</h1>
      <span style="padding: 4px 12px; border-radius: 20px; font-weight: bold;">{{.Severity}}</span>
    </div>
    <div style="background: #f9fafb; padding: 20px; border-radius: 0 0 8px 8px;">
      <div style="background: white; padding: 15px; border-radius: 8px; margin: 15px 0;">
        <h2>{{.Type}}</h2>
        <p><strong>Message:</strong> {{.Message}}</p>
        <p><strong>Farm:</strong> {{.FarmName}}</p>
        <p><strong>Plot:</strong> {{.PlotName}}</p>
        <p><strong>Time:</strong> {{.Time}}</p>
      </div>
      <p>Please check your monitoring dashboard for details and take appropriate action.</p>
    </div>
    <div style="text-align: center; margin-top: 20px; color: #6b7280; font-size: 14px;">
      <p>This is an automated alert from the plot monitoring system</p>
    </div>
  </div>
</body>
</html>`))

type emailData struct {
	Color    string
	Severity string
	Type     string
	Message  string
	FarmName string
	PlotName string
	Time     string
}

func renderEmailBody(alert *model.Alert) (string, error) {
	color, ok := severityColors[alert.Severity]
	if !ok {
		color = "#6b7280"
	}
	farm := alert.FarmName
	if farm == "" {
		farm = "Unknown"
	}
	plot := alert.PlotName
	if plot == "" {
		plot = "Unknown"
	}
	data := emailData{
		Color:    color,
		Severity: strings.ToUpper(string(alert.Severity)),
		Type:     strings.ToUpper(alert.AlertType.Display()),
		Message:  alert.Message,
		FarmName: farm,
		PlotName: plot,
		Time:     alert.CreatedAt.Format(time.RFC1123),
	}
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
