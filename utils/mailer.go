package utils

import (
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/cppla/blogcms/config"
)

// Mailer sends transactional mail over SMTP.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	useTLS   bool
	siteName string
	siteURL  string
}

// NewMailer returns nil when SMTP is not configured.
func NewMailer(cfg config.AppConfig) *Mailer {
	if !cfg.MailEnabled() {
		return nil
	}
	fromName := cfg.SMTPFromName
	if fromName == "" {
		fromName = cfg.SiteName
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		fromName: fromName,
		useTLS:   cfg.SMTPTLS,
		siteName: cfg.SiteName,
		siteURL:  cfg.SiteURL,
	}
}

// SendWelcome mails the newsletter welcome message to a new subscriber.
func (m *Mailer) SendWelcome(to string) error {
	subject, body := WelcomeMessage(m.siteName, m.siteURL)
	return m.Send(to, subject, body)
}

// WelcomeMessage renders the newsletter welcome subject and HTML body.
func WelcomeMessage(siteName, siteURL string) (string, string) {
	if siteName == "" {
		siteName = "our blog"
	}
	name := html.EscapeString(siteName)
	var b strings.Builder
	b.WriteString("<h1>Welcome to " + name + "!</h1>")
	b.WriteString("<p>Thanks for subscribing. You will receive our latest articles and updates straight to your inbox.</p>")
	if siteURL != "" {
		u := html.EscapeString(siteURL)
		b.WriteString(`<p><a href="` + u + `">Visit ` + name + `</a></p>`)
	}
	return "Welcome to " + siteName + "!", b.String()
}

// Send delivers an HTML message to a single recipient.
func (m *Mailer) Send(to, subject, body string) error {
	if m == nil {
		return fmt.Errorf("smtp not configured")
	}
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", encodeRFC2047(m.fromName), m.from)},
		{"To", to},
		{"Subject", encodeRFC2047(subject)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}
	var msg strings.Builder
	for _, h := range headers {
		msg.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if !m.useTLS {
		return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg.String()))
	}

	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return err
	}
	_ = conn.SetDeadline(time.Now().Add(15 * time.Second))
	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}
	if m.username != "" {
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(m.from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write([]byte(msg.String())); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// encodeRFC2047 encodes non-ASCII header values.
func encodeRFC2047(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 128 {
			return "=?UTF-8?B?" + base64.StdEncoding.EncodeToString([]byte(s)) + "?="
		}
	}
	return s
}
