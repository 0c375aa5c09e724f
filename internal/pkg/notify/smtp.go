package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

const codeMailTemplate = `<div style="font-family: Helvetica,Arial,sans-serif;line-height:2">
<p>Hi,</p>
<p>The OTP to login into your SendIt account.</p>
<p style="background:#00466a;width:max-content;padding:12px;color:#fff;border-radius:4px;">%s</p>
<p>This OTP is valid for 3 minutes.</p>
<p>If you did not make this request, please ignore.</p>
</div>`

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type SMTPGateway struct {
	cfg SMTPConfig
}

func NewSMTPGateway(cfg SMTPConfig) *SMTPGateway {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPGateway{cfg: cfg}
}

func (g *SMTPGateway) SendCode(ctx context.Context, email, code string) error {
	msg := mail.NewMsg()
	if err := msg.From(g.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject("Login OTP")
	msg.SetBodyString(mail.TypeTextHTML, fmt.Sprintf(codeMailTemplate, code))

	opts := []mail.Option{
		mail.WithPort(g.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(g.cfg.Username),
		mail.WithPassword(g.cfg.Password),
	}
	if g.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	}
	if g.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(g.cfg.Timeout))
	}

	client, err := mail.NewClient(g.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send otp mail: %w", err)
	}
	return nil
}
