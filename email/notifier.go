package email

import (
	"fmt"

	"github.com/apex/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"campaign-dashboard/config"
)

// Notifier sends internal notification mails to the marketing team (BAT
// review requests, schedule confirmations). Campaign delivery itself goes
// through DoctorSender, never through here.
type Notifier struct {
	config *config.Config
	client *sendgrid.Client
}

// NewNotifier creates a SendGrid-backed notifier.
func NewNotifier(cfg *config.Config) *Notifier {
	return &Notifier{
		config: cfg,
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
	}
}

// NotifyBatSent tells the reviewers a BAT test send is waiting for them.
// One failed recipient does not stop the others.
func (n *Notifier) NotifyBatSent(recipients []string, campaignName, dsCampaignID string) error {
	log.Infof("Notifying %d reviewers for campaign %q", len(recipients), campaignName)

	subject := fmt.Sprintf("BAT ready for review: %s", campaignName)
	body := fmt.Sprintf(
		"A BAT test send for campaign %q (DoctorSender id %s) has been delivered to your inbox.\n\n"+
			"Please review it in the dashboard and approve or reject the campaign.",
		campaignName, dsCampaignID)

	for _, recipient := range recipients {
		if err := n.sendOne(recipient, subject, body); err != nil {
			log.Warnf("Error sending notification to %s: %v", recipient, err)
		}
	}
	return nil
}

// NotifyScheduled confirms a campaign was scheduled.
func (n *Notifier) NotifyScheduled(recipients []string, campaignName, sendAt string) error {
	subject := fmt.Sprintf("Campaign scheduled: %s", campaignName)
	body := fmt.Sprintf("Campaign %q has been scheduled for delivery at %s.", campaignName, sendAt)

	for _, recipient := range recipients {
		if err := n.sendOne(recipient, subject, body); err != nil {
			log.Warnf("Error sending notification to %s: %v", recipient, err)
		}
	}
	return nil
}

func (n *Notifier) sendOne(recipient, subject, body string) error {
	from := mail.NewEmail(n.config.SendGridFromName, n.config.SendGridFromEmail)
	to := mail.NewEmail("", recipient)
	message := mail.NewSingleEmail(from, subject, to, body, "")

	response, err := n.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
