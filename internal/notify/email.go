package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Dan9191/payplanner/internal/config"
	"github.com/Dan9191/payplanner/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{
		cfg:    cfg,
		logger: logger,
	}
	s.send = s.sendSMTP
	return s
}

func (s *Sender) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	return e.Send(addr, auth)
}

// buildStatusEmail formats the message for a status change, or returns nil
// when the status is not one clients are told about
func (s *Sender) buildStatusEmail(p models.PaymentRecord) *email.Email {
	if p.ClientEmail == nil {
		return nil
	}

	name := "client"
	if p.ClientName != nil {
		name = *p.ClientName
	}
	var what string
	if p.Description != nil {
		what = fmt.Sprintf(" (%s)", *p.Description)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{*p.ClientEmail}

	switch p.Status {
	case models.StatusCompleted:
		e.Subject = "Payment received"
		paid := p.DueDate
		if p.PaidDate != nil {
			paid = *p.PaidDate
		}
		fmt.Fprintf(&b, "We have received your payment of %s%s on %s.\nThank you!\n",
			p.AmountDue.StringFixed(2), what, paid.Format("2006-01-02"))
	case models.StatusOverdue:
		e.Subject = "Overdue payment notification"
		fmt.Fprintf(&b, "Your payment of %s%s was due on %s and is now overdue.\n"+
			"Outstanding amount: %s.\nPlease make the payment as soon as possible.\n",
			p.AmountDue.StringFixed(2), what, p.DueDate.Format("2006-01-02"), p.Outstanding().StringFixed(2))
	default:
		return nil
	}
	b.WriteString("\nBest regards,\nPayment Planner")
	e.Text = []byte(b.String())
	return e
}

// NotifyStatus emails the client about a payment that was settled or became overdue
func (s *Sender) NotifyStatus(p models.PaymentRecord) error {
	e := s.buildStatusEmail(p)
	if e == nil {
		return nil
	}
	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", e.To[0], err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", e.To[0], e.Subject)
	return nil
}
