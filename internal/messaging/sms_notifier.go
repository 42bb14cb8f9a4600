package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// phoneNumberRegex matches everything that is not a digit or plus.
var phoneNumberRegex = regexp.MustCompile(`[^\d+]`)

// nonDigitRegex matches everything that is not a digit.
var nonDigitRegex = regexp.MustCompile(`[^\d]`)

// SMSSender is the subset of the Twilio client used by the notifier.
type SMSSender interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

// SMSNotifier delivers notifications to phone-number recipients via Twilio
// SMS.
type SMSNotifier struct {
	client SMSSender
	from   string
}

// NewSMSNotifier creates an SMS notifier with Twilio credentials.
func NewSMSNotifier(accountSID, authToken, from string) *SMSNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	slog.Debug("SMSNotifier created", "from", from)
	return &SMSNotifier{client: client.Api, from: from}
}

// NewSMSNotifierWithSender creates an SMS notifier over an existing sender;
// used by tests.
func NewSMSNotifierWithSender(sender SMSSender, from string) *SMSNotifier {
	return &SMSNotifier{client: sender, from: from}
}

// SendText sends the text as a single SMS message.
func (n *SMSNotifier) SendText(ctx context.Context, recipient string, text string) error {
	to := CanonicalizePhone(recipient)
	if to == "" {
		return fmt.Errorf("invalid sms recipient %q: no digits found", recipient)
	}
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(n.from)
	params.SetBody(text)
	if _, err := n.client.CreateMessage(params); err != nil {
		slog.Error("SMSNotifier SendText failed", "error", err, "recipient", to)
		return fmt.Errorf("failed to send sms to %s: %w", to, err)
	}
	slog.Debug("SMSNotifier SendText succeeded", "recipient", to, "length", len(text))
	return nil
}

// SendPhoto degrades to text for SMS: the photo reference is a
// transport-local storage id that SMS cannot resolve, so only the caption is
// delivered.
func (n *SMSNotifier) SendPhoto(ctx context.Context, recipient string, photoRef string, caption string) error {
	return n.SendText(ctx, recipient, caption)
}

// CanonicalizePhone strips formatting characters from a phone number,
// keeping digits and a leading plus.
func CanonicalizePhone(recipient string) string {
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if len(canonical) > 1 {
		// keep only a leading plus
		canonical = string(canonical[0]) + nonDigitRegex.ReplaceAllString(canonical[1:], "")
	}
	if canonical == "+" {
		return ""
	}
	return canonical
}
