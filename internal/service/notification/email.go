package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/resend/resend-go/v2"
)

// EmailChannel Resend 邮件通知
type EmailChannel struct {
	cli  *resend.Client
	from string
}

func NewEmailChannel(cli *resend.Client, from string) Channel {
	return &EmailChannel{
		cli:  cli,
		from: from,
	}
}

func (c *EmailChannel) Name() string {
	return "email"
}

func (c *EmailChannel) Send(ctx context.Context, payload Payload) error {
	if payload.UserEmail == "" {
		// 用户没留邮箱, 不算失败
		slog.Debug("no email address for user", "user_id", payload.UserId)
		return nil
	}

	sent, err := c.cli.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{payload.UserEmail},
		Subject: payload.Title(),
		Html:    c.html(payload),
		Text:    payload.Body(),
	})
	if err != nil {
		return fmt.Errorf("send email to %s: %w", payload.UserEmail, err)
	}
	slog.Info("alert email sent", "to", payload.UserEmail, "email_id", sent.Id)
	return nil
}

func (c *EmailChannel) html(payload Payload) string {
	tokens := make([]string, 0, len(payload.Prices))
	for token := range payload.Prices {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	var prices string
	for _, token := range tokens {
		prices += fmt.Sprintf("<li><strong>%s:</strong> $%s</li>", token, payload.Prices[token].StringFixed(2))
	}

	message := payload.Message
	if message == "" {
		message = "Price alert triggered"
	}

	return fmt.Sprintf(`<html><body>
<h2>%s</h2>
<p>Your crypto price alert has been triggered.</p>
<p><strong>Alert:</strong> %s</p>
<ul>%s</ul>
<p><strong>Triggered at:</strong> %s</p>
</body></html>`, payload.Title(), message, prices, payload.TriggeredAt.Format("2006-01-02 15:04:05 MST"))
}
