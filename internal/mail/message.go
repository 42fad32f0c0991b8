package mail

import (
	"fmt"
	"strings"
)

const loginCodeSubject = "Login Verification Code"

type Message struct {
	To      string
	Subject string
	Body    string
}

func LoginCodeMessage(p LoginCodePayload) Message {
	ttl := p.TTLMinute
	if ttl <= 0 {
		ttl = 10
	}

	var b strings.Builder
	if p.Name != "" {
		fmt.Fprintf(&b, "Hello %s,\n\n", p.Name)
	} else {
		b.WriteString("Hello,\n\n")
	}
	b.WriteString("Your OTP for login verification is:\n\n")
	b.WriteString(p.Code)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "This code will expire in %d minutes.\n\n", ttl)
	b.WriteString("If you did not request this code, please ignore this email.\n")

	return Message{To: p.Email, Subject: loginCodeSubject, Body: b.String()}
}
