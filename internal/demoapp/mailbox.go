package demoapp

import (
	"strings"
	"sync"
	"time"
)

// Mail is a message delivered to the in-memory mailbox.
type Mail struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sentAt"`
}

// Mailbox stores sent mails in memory.
type Mailbox struct {
	mu    sync.Mutex
	mails []Mail
}

func (m *Mailbox) Send(mail Mail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mails = append(m.mails, mail)
}

// Latest returns the newest mail to recipient whose subject or body contains
// query. An empty recipient or query matches everything.
func (m *Mailbox) Latest(recipient, query string) (Mail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.mails) - 1; i >= 0; i-- {
		mail := m.mails[i]
		if recipient != "" && !strings.EqualFold(mail.To, recipient) {
			continue
		}
		if query != "" && !strings.Contains(mail.Subject+"\n"+mail.Body, query) {
			continue
		}
		return mail, true
	}
	return Mail{}, false
}

func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mails)
}
