package moderation

import (
	"fmt"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/kalorio/kalorio/config"
)

// MailNotifier mails a short digest of every moderation decision to the
// configured moderation mailbox. Failures are logged only; mail can never
// block or fail a decision.
type MailNotifier struct {
	cfg       config.MailConfig
	recipient func() string
}

// NewMailNotifier subscribes to TopicDecision. recipient is resolved per
// event so the settings table can change it at runtime.
func NewMailNotifier(cfg config.MailConfig, bus EventBus.Bus, recipient func() string) (*MailNotifier, error) {
	n := &MailNotifier{cfg: cfg, recipient: recipient}
	if err := bus.SubscribeAsync(TopicDecision, n.onDecision, false); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *MailNotifier) onDecision(ev DecisionEvent) {
	if !n.cfg.Enable {
		return
	}
	to := n.recipient()
	if to == "" {
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("[kalorio] %s: %s (%s)",
		ev.Product.VerificationStatus, ev.Product.Name, ev.Product.Brand))
	m.SetBody("text/plain", fmt.Sprintf(
		"Product %s (%s, barcode %s) was %s by %s.\nNotes: %s\n",
		ev.Product.Name, ev.Product.Brand, ev.Product.Barcode,
		ev.Product.VerificationStatus, ev.Moderator, ev.Product.ModeratorNotes))

	d := gomail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.User, n.cfg.Passwd)
	if err := d.DialAndSend(m); err != nil {
		zap.L().Warn("moderation mail failed",
			zap.String("to", to),
			zap.Error(err))
	}
}
