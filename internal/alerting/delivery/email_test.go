package delivery

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/plotwatch/plotwatch/internal/alerting/model"
	"github.com/plotwatch/plotwatch/internal/config"
)

func emailConfig() config.EmailConfig {
	return config.EmailConfig{
		Enabled:    true,
		Host:       "smtp.example.com",
		Port:       587,
		User:       "sender",
		Password:   "secret",
		From:       "alerts@plotwatch.io",
		Recipients: []string{"farmer@example.com", "agronomist@example.com"},
	}
}

type sentMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestEmail(cfg config.EmailConfig, fail error) (*EmailChannel, *sentMail) {
	e := NewEmailChannel(cfg)
	rec := &sentMail{}
	e.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		rec.addr, rec.auth, rec.from, rec.to, rec.msg = addr, a, from, to, string(msg)
		return fail
	}
	return e, rec
}

func TestEmailSend_BuildsMessage(t *testing.T) {
	e, rec := newTestEmail(emailConfig(), nil)
	alert := testAlert(model.SeverityHigh)

	detail, err := e.Send(context.Background(), alert)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if detail != "sent to 2 recipients" {
		t.Errorf("detail = %q", detail)
	}
	if rec.addr != "smtp.example.com:587" {
		t.Errorf("addr = %q", rec.addr)
	}
	if rec.from != "alerts@plotwatch.io" || len(rec.to) != 2 {
		t.Errorf("from=%q to=%v", rec.from, rec.to)
	}
	if rec.auth == nil {
		t.Error("expected PLAIN auth when a user is configured")
	}
	if !strings.Contains(rec.msg, "Subject: Farm Alert: HIGH - temperature") {
		t.Errorf("subject line missing:\n%s", rec.msg)
	}
	if !strings.Contains(rec.msg, "Content-Type: text/html") {
		t.Error("missing HTML content type header")
	}
	if !strings.Contains(rec.msg, alert.Message) {
		t.Error("alert message missing from body")
	}
	if !strings.Contains(rec.msg, "Sunrise Farm") || !strings.Contains(rec.msg, "North Field") {
		t.Error("farm / plot names missing from body")
	}
}

func TestEmailSend_NoAuthWithoutUser(t *testing.T) {
	cfg := emailConfig()
	cfg.User = ""
	e, rec := newTestEmail(cfg, nil)
	if _, err := e.Send(context.Background(), testAlert(model.SeverityMedium)); err != nil {
		t.Fatal(err)
	}
	if rec.auth != nil {
		t.Error("expected no auth when user is empty")
	}
}

func TestEmailSend_Disabled(t *testing.T) {
	cfg := emailConfig()
	cfg.Enabled = false
	e, _ := newTestEmail(cfg, nil)
	if _, err := e.Send(context.Background(), testAlert(model.SeverityHigh)); err == nil {
		t.Fatal("disabled channel must refuse to send")
	}
}

func TestEmailSend_NoRecipients(t *testing.T) {
	cfg := emailConfig()
	cfg.Recipients = nil
	e, _ := newTestEmail(cfg, nil)
	if _, err := e.Send(context.Background(), testAlert(model.SeverityHigh)); err == nil {
		t.Fatal("empty recipient list must be an error")
	}
}

func TestEmailSend_SMTPError(t *testing.T) {
	e, _ := newTestEmail(emailConfig(), errors.New("550 rejected"))
	_, err := e.Send(context.Background(), testAlert(model.SeverityHigh))
	if err == nil || !strings.Contains(err.Error(), "550 rejected") {
		t.Fatalf("err = %v", err)
	}
}

func TestRenderEmailBody_UnknownNamesFallBack(t *testing.T) {
	alert := testAlert(model.SeverityLow)
	alert.FarmName = ""
	alert.PlotName = ""
	body, err := renderEmailBody(alert)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "Unknown") {
		t.Error("expected Unknown placeholders for missing names")
	}
	if !strings.Contains(body, severityColors[model.SeverityLow]) {
		t.Error("severity color missing from rendered body")
	}
}
