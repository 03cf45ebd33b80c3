package notifications

import (
	"fmt"
	"strings"

	"github.com/nook/nook/internal/config"
	"github.com/nook/nook/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// EmailService mails the report of each digest run
type EmailService struct {
	from   string
	to     string
	dialer *gomail.Dialer
	// sender overrides dialing the SMTP server
	sender gomail.Sender
}

// Ensure EmailService implements NotificationInterface
var _ NotificationInterface = (*EmailService)(nil)

// NewEmailService creates an email notifier from the SMTP settings
func NewEmailService(cfg *config.Config) *EmailService {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUsername
	}

	return &EmailService{
		from:   from,
		to:     cfg.NotificationEmail,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

// SendReport emails a summary of the run followed by every saved document
func (s *EmailService) SendReport(report *models.Report) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)
	m.SetHeader("Subject", subject(report))
	m.SetBody("text/plain", body(report))

	var err error
	if s.sender != nil {
		err = gomail.Send(s.sender, m)
	} else {
		err = s.dialer.DialAndSend(m)
	}
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logrus.Infof("Sent digest report for %s to %s", report.Date.Format("2006-01-02"), s.to)
	return nil
}

func subject(report *models.Report) string {
	s := fmt.Sprintf("nook digest %s: %d document(s)", report.Date.Format("2006-01-02"), len(report.Digests))
	if report.ErrorCount > 0 {
		s += fmt.Sprintf(", %d error(s)", report.ErrorCount)
	}
	return s
}

func body(report *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Digest run for %s\n", report.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	if len(report.Digests) == 0 {
		b.WriteString("No documents were saved.\n")
	}
	for _, d := range report.Digests {
		fmt.Fprintf(&b, "- %s: %d item(s) -> %s\n", d.Service, len(d.Items), d.Key)
	}

	if len(report.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for _, e := range report.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	for _, d := range report.Digests {
		b.WriteString("\n" + strings.Repeat("=", 60) + "\n\n")
		b.WriteString(d.Content)
	}

	return b.String()
}
