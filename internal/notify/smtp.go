package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	gomail "gopkg.in/gomail.v2"
)

type SMTPNotifier struct {
	Dialer *gomail.Dialer
	From   string

	sender gomail.Sender
}

func NewSMTPNotifier(host string, port int, user, password, from string) *SMTPNotifier {
	d := gomail.NewDialer(host, port, user, password)
	d.SSL = port == 465
	return &SMTPNotifier{Dialer: d, From: from}
}

func (n *SMTPNotifier) Notify(ctx context.Context, msg Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", plainBody(msg))

	if n.sender != nil {
		return gomail.Send(n.sender, m)
	}
	return n.Dialer.DialAndSend(m)
}

func plainBody(msg Email) string {
	keys := make([]string, 0, len(msg.Data))
	for k := range msg.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg.Subject)
	b.WriteString("\n\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, msg.Data[k])
	}
	return b.String()
}
