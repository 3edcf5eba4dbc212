package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"
	"strings"

	"blogify/internal/config"

	"go.uber.org/zap"
)

const verificationMailTemplate = `<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <h2>Verify your email</h2>
  <p>Welcome to {{.SiteName}}! Click the link below to verify your email address.</p>
  <p><a href="{{.Link}}">Verify email</a></p>
  <p>This link expires in 24 hours. If you did not create an account, you can ignore this message.</p>
</body>
</html>`

const resetMailTemplate = `<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <h2>Reset your password</h2>
  <p>We received a request to reset the password for your {{.SiteName}} account.</p>
  <p><a href="{{.Link}}">Choose a new password</a></p>
  <p>This link expires in 1 hour. If you did not request a reset, your password is unchanged.</p>
</body>
</html>`

var (
	verificationMail = template.Must(template.New("verification").Parse(verificationMailTemplate))
	resetMail        = template.Must(template.New("reset").Parse(resetMailTemplate))
)

// MailService sends transactional mail over SMTP. When the SMTP settings are
// absent it stays disabled and every send becomes a logged no-op, so local
// development works without a mail account.
type MailService struct {
	cfg      config.SMTPConfig
	siteURL  string
	siteName string
	logger   *zap.Logger
}

func NewMailService(cfg config.SMTPConfig, siteURL, siteName string, logger *zap.Logger) *MailService {
	if !cfg.Enabled() {
		logger.Warn("MailService disabled: missing SMTP environment variables")
	}
	return &MailService{
		cfg:      cfg,
		siteURL:  strings.TrimSuffix(siteURL, "/"),
		siteName: siteName,
		logger:   logger,
	}
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.cfg.Enabled() {
		s.logger.Info("Mail not sent (SMTP disabled)", zap.Strings("to", to), zap.String("subject", subject))
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

		mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
		msg := []byte(fmt.Sprintf("To: %s\r\n"+
			"From: %s <%s>\r\n"+
			"Subject: %s\r\n"+
			"%s\r\n%s", strings.Join(to, ","), s.siteName, s.cfg.From, subject, mime, body))

		if err := smtp.SendMail(addr, auth, s.cfg.From, to, msg); err != nil {
			s.logger.Error("Failed to send email", zap.Strings("to", to), zap.Error(err))
			return
		}
		s.logger.Info("Email sent", zap.Strings("to", to), zap.String("subject", subject))
	}()
}

func (s *MailService) render(t *template.Template, link string) (string, error) {
	var buf bytes.Buffer
	err := t.Execute(&buf, map[string]string{
		"SiteName": s.siteName,
		"Link":     link,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render mail template: %w", err)
	}
	return buf.String(), nil
}

// SendVerificationLink mails a verify-email link embedding the raw secret.
func (s *MailService) SendVerificationLink(email, secret string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.siteURL, url.QueryEscape(secret))
	body, err := s.render(verificationMail, link)
	if err != nil {
		s.logger.Error("Error rendering verification email", zap.Error(err))
		return
	}
	s.sendAsync([]string{email}, fmt.Sprintf("Verify your email for %s", s.siteName), body)
}

// SendPasswordResetLink mails a reset-password link embedding the raw secret.
func (s *MailService) SendPasswordResetLink(email, secret string) {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.siteURL, url.QueryEscape(secret))
	body, err := s.render(resetMail, link)
	if err != nil {
		s.logger.Error("Error rendering reset email", zap.Error(err))
		return
	}
	s.sendAsync([]string{email}, fmt.Sprintf("Reset your %s password", s.siteName), body)
}
