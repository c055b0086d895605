// Package mail sends transactional email through an SMTP relay.
package mail

import (
	"fmt"
	"sync"

	"gopkg.in/gomail.v2"
)

// Sender delivers password reset messages. The SMTP connection is kept open
// and reused across sends; a failed send drops the connection so the next
// send redials.
type Sender struct {
	dialer *gomail.Dialer
	from   string

	mu   sync.Mutex
	conn gomail.SendCloser
}

func NewSender(host string, port int, user, password, from string) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

// SendPasswordReset mails a time-boxed reset link to the recipient.
func (s *Sender) SendPasswordReset(to, resetLink string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Reset Your Password")
	m.SetBody("text/html", resetBody(resetLink))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		conn, err := s.dialer.Dial()
		if err != nil {
			return fmt.Errorf("could not connect to mail relay: %w", err)
		}
		s.conn = conn
	}
	if err := gomail.Send(s.conn, m); err != nil {
		_ = s.conn.Close()
		s.conn = nil
		return fmt.Errorf("could not send reset email: %w", err)
	}
	return nil
}

func resetBody(resetLink string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;background:#f5f5f5;">
<table width="100%%" cellpadding="0" cellspacing="0" style="padding:40px 0;">
<tr><td align="center">
<table width="600" cellpadding="0" cellspacing="0" style="background:#fff;border-radius:10px;padding:40px;">
<tr><td style="padding-bottom:20px;">
<h2 style="color:#333;font-size:20px;margin:0 0 20px;">Password Reset Request</h2>
<p style="font-size:15px;color:#555;margin:0;">Click the button below to reset your password:</p>
</td></tr>
<tr><td align="center" style="padding:30px 0;">
<a href="%s" style="display:inline-block;padding:16px 50px;background:#3e78c2;color:#fff;text-decoration:none;font-weight:bold;font-size:18px;border-radius:6px;">Reset Password</a>
</td></tr>
<tr><td style="padding:20px 0;">
<p style="margin:0;color:#856404;font-size:14px;"><strong>This link expires in 1 hour.</strong> Request a new one if expired.</p>
</td></tr>
<tr><td style="padding:20px 0;">
<p style="color:#999;font-size:13px;margin:0;">Didn't request this? Ignore this email.</p>
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>`, resetLink)
}
