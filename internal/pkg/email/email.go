package email

import (
	"fmt"
	"html"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/qs3c/inbox_premium_server/config"
)

type Service struct {
	cfg    *config.EmailConfig
	sender gomail.Sender
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg}
}

// WithSender 替换发送实现，测试中使用
func (s *Service) WithSender(sender gomail.Sender) *Service {
	s.sender = sender
	return s
}

// SendPremiumActivated 套餐开通通知
func (s *Service) SendPremiumActivated(to []string, tierName string, renewsAt *time.Time) error {
	renewal := "Your plan does not renew automatically."
	if renewsAt != nil {
		renewal = fmt.Sprintf("Your plan is active until %s.", renewsAt.Format("January 2, 2006"))
	}

	body := layout("Welcome to premium", fmt.Sprintf(`
        <p>Thanks for upgrading! Your <strong>%s</strong> plan is now active.</p>
        <p>%s</p>
        <p>You can manage your subscription at any time from the premium page.</p>`,
		html.EscapeString(tierName), renewal))

	return s.sendHTML(to, "Your premium plan is active", body)
}

// SendPremiumCancelled 取消订阅通知
func (s *Service) SendPremiumCancelled(to []string, endsAt *time.Time) error {
	until := "immediately"
	if endsAt != nil {
		until = "on " + endsAt.Format("January 2, 2006")
	}

	body := layout("Subscription cancelled", fmt.Sprintf(`
        <p>Your subscription has been cancelled and premium features end %s.</p>
        <p>You keep access to the bulk unsubscriber with your monthly free credits.</p>`,
		until))

	return s.sendHTML(to, "Your subscription was cancelled", body)
}

// SendSeatsChanged 邮箱账号数变更通知
func (s *Service) SendSeatsChanged(to []string, seats int) error {
	body := layout("Email accounts updated", fmt.Sprintf(`
        <p>Your plan now covers <strong>%d</strong> email accounts.</p>`, seats))

	return s.sendHTML(to, "Your email accounts were updated", body)
}

func layout(title, content string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">%s</h2>%s
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">This is an automated message, please do not reply.</p>
    </div>
</body>
</html>
`, html.EscapeString(title), content)
}

func (s *Service) sendHTML(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if s.sender != nil {
		return gomail.Send(s.sender, m)
	}

	d := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
