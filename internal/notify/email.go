package notify

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// EmailSender delivers HTML mail over SMTP.
type EmailSender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string

	// DialTimeout bounds the SMTP connection attempt (default 10s).
	DialTimeout time.Duration
}

// NewEmailSender returns an EmailSender for the given SMTP endpoint.
// Username may be empty for unauthenticated relays.
func NewEmailSender(host, port, username, password, from string) *EmailSender {
	return &EmailSender{
		Host:        host,
		Port:        port,
		Username:    username,
		Password:    password,
		From:        from,
		DialTimeout: 10 * time.Second,
	}
}

func (s *EmailSender) Name() string { return "email" }

func severityColor(sev string) string {
	switch strings.ToLower(sev) {
	case "critical":
		return "#d32f2f"
	case "high":
		return "#f57c00"
	case "medium":
		return "#fbc02d"
	default:
		return "#388e3c"
	}
}

// SendFinding mails one finding with a severity-colored header, a detail
// grid, and a recommendation callout. Subject: "[<Provider>] <SEVERITY>: <Title>".
func (s *EmailSender) SendFinding(ctx context.Context, dest string, ev FindingEvent) error {
	sev := strings.ToUpper(string(ev.Finding.Severity))
	subject := findingSubject(ev)

	var b strings.Builder
	fmt.Fprintf(&b, `<div style="background:%s;color:#fff;padding:16px;font-size:18px;font-weight:bold">%s: %s</div>`,
		severityColor(sev), sev, html.EscapeString(ev.Finding.Title))
	b.WriteString(`<table style="border-collapse:collapse;margin:16px 0">`)
	writeDetailRow(&b, "Account", ev.AccountName)
	writeDetailRow(&b, "Provider", ev.Provider.DisplayName())
	writeDetailRow(&b, "Resource", ev.Finding.Resource)
	writeDetailRow(&b, "Type", ev.Finding.ResourceType)
	writeDetailRow(&b, "Region", ev.Finding.Region)
	b.WriteString(`</table>`)
	if ev.Finding.Description != "" {
		fmt.Fprintf(&b, `<p>%s</p>`, html.EscapeString(ev.Finding.Description))
	}
	if ev.Finding.Recommendation != "" {
		fmt.Fprintf(&b, `<div style="border-left:4px solid %s;padding:8px 12px;background:#f5f5f5"><b>Recommendation:</b> %s</div>`,
			severityColor(sev), html.EscapeString(ev.Finding.Recommendation))
	}

	return s.send(ctx, dest, subject, b.String())
}

// SendSummary mails the audit completion summary.
// Subject: "[<Provider>] Security Audit Complete - <N> Critical, <M> High findings".
func (s *EmailSender) SendSummary(ctx context.Context, dest string, ev SummaryEvent) error {
	subject := summarySubject(ev)

	sev := "high"
	if ev.Summary.Critical > 0 {
		sev = "critical"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<div style="background:%s;color:#fff;padding:16px;font-size:18px;font-weight:bold">Security Audit Complete - %s</div>`,
		severityColor(sev), html.EscapeString(ev.AccountName))
	b.WriteString(`<table style="border-collapse:collapse;margin:16px 0">`)
	writeDetailRow(&b, "Critical", fmt.Sprintf("%d", ev.Summary.Critical))
	writeDetailRow(&b, "High", fmt.Sprintf("%d", ev.Summary.High))
	writeDetailRow(&b, "Medium", fmt.Sprintf("%d", ev.Summary.Medium))
	writeDetailRow(&b, "Low", fmt.Sprintf("%d", ev.Summary.Low))
	writeDetailRow(&b, "Total", fmt.Sprintf("%d", ev.Summary.Total))
	b.WriteString(`</table>`)

	return s.send(ctx, dest, subject, b.String())
}

func findingSubject(ev FindingEvent) string {
	return fmt.Sprintf("[%s] %s: %s",
		ev.Provider.DisplayName(), strings.ToUpper(string(ev.Finding.Severity)), ev.Finding.Title)
}

func summarySubject(ev SummaryEvent) string {
	return fmt.Sprintf("[%s] Security Audit Complete - %d Critical, %d High findings",
		ev.Provider.DisplayName(), ev.Summary.Critical, ev.Summary.High)
}

func writeDetailRow(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, `<tr><td style="padding:4px 12px 4px 0;color:#666">%s</td><td style="padding:4px 0">%s</td></tr>`,
		html.EscapeString(label), html.EscapeString(value))
}

// send connects with a dial timeout and honors ctx cancellation on connect.
// net/smtp has no context support, so the timeout is enforced at the dialer.
func (s *EmailSender) send(ctx context.Context, to, subject, htmlBody string) error {
	addr := net.JoinHostPort(s.Host, s.Port)

	dialer := &net.Dialer{Timeout: s.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if s.Username != "" {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	if err := client.Mail(s.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if _, err := w.Write([]byte(msg.String())); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
