package email

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tvtracker/tvtracker/internal/notification/types"
)

type smtpSession struct {
	mu    sync.Mutex
	from  string
	rcpts []string
	data  string
}

// fakeSMTP accepts one connection and speaks just enough SMTP for net/smtp.
func fakeSMTP(t *testing.T) (host string, port int, session *smtpSession, done <-chan struct{}) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	session = &smtpSession{}
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		w := bufio.NewWriter(conn)
		reply := func(s string) {
			w.WriteString(s + "\r\n")
			w.Flush()
		}

		reply("220 localhost ESMTP fake")
		inData := false
		var body strings.Builder
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")

			if inData {
				if line == "." {
					inData = false
					session.mu.Lock()
					session.data = body.String()
					session.mu.Unlock()
					reply("250 OK queued")
					continue
				}
				body.WriteString(line + "\n")
				continue
			}

			upper := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(upper, "EHLO"):
				reply("250-localhost")
				reply("250 HELP")
			case strings.HasPrefix(upper, "MAIL FROM:"):
				session.mu.Lock()
				session.from = strings.Trim(line[len("MAIL FROM:"):], "<> ")
				session.mu.Unlock()
				reply("250 OK")
			case strings.HasPrefix(upper, "RCPT TO:"):
				session.mu.Lock()
				session.rcpts = append(session.rcpts, strings.Trim(line[len("RCPT TO:"):], "<> "))
				session.mu.Unlock()
				reply("250 OK")
			case upper == "DATA":
				inData = true
				reply("354 End data with <CR><LF>.<CR><LF>")
			case upper == "QUIT":
				reply("221 Bye")
				return
			default:
				reply("250 OK")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port, session, finished
}

func TestNew_Defaults(t *testing.T) {
	n := New("smtp", Settings{Server: "mail.example.com"}, zerolog.Nop())

	if n.settings.Port != 587 {
		t.Errorf("Port = %d, want 587", n.settings.Port)
	}
	if n.settings.Encryption != EncryptionPreferred {
		t.Errorf("Encryption = %q, want %q", n.settings.Encryption, EncryptionPreferred)
	}
	if n.Type() != types.NotifierEmail {
		t.Errorf("Type() = %q, want %q", n.Type(), types.NotifierEmail)
	}
	if n.Name() != "smtp" {
		t.Errorf("Name() = %q, want smtp", n.Name())
	}
}

func TestSend_DeliversOneTransaction(t *testing.T) {
	host, port, session, done := fakeSMTP(t)

	n := New("smtp", Settings{
		Server:     host,
		Port:       port,
		Encryption: EncryptionPreferred,
		From:       "TVTracker <alerts@tvtracker.local>",
	}, zerolog.Nop())

	err := n.Send(context.Background(), types.Message{
		To:      []string{"a@example.com", " b@example.com ", "A@example.com", ""},
		Subject: "Breaking Bad is starting soon!",
		Body:    "Breaking Bad starts in less than 2 hours on AMC.\n\nEpisode 1 Overview",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	<-done

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.from != "alerts@tvtracker.local" {
		t.Errorf("MAIL FROM = %q, want alerts@tvtracker.local", session.from)
	}
	if len(session.rcpts) != 2 || session.rcpts[0] != "a@example.com" || session.rcpts[1] != "b@example.com" {
		t.Errorf("RCPT TO = %v, want [a@example.com b@example.com]", session.rcpts)
	}
	if !strings.Contains(session.data, "Subject: Breaking Bad is starting soon!") {
		t.Errorf("message missing subject header:\n%s", session.data)
	}
	if !strings.Contains(session.data, "To: a@example.com, b@example.com") {
		t.Errorf("message missing To header:\n%s", session.data)
	}
	if !strings.Contains(session.data, "Content-Type: text/plain") {
		t.Errorf("message should be plain text:\n%s", session.data)
	}
	if !strings.Contains(session.data, "Episode 1 Overview") {
		t.Errorf("message missing body:\n%s", session.data)
	}
}

func TestSend_NoRecipients(t *testing.T) {
	n := New("smtp", Settings{Server: "127.0.0.1"}, zerolog.Nop())

	err := n.Send(context.Background(), types.Message{To: []string{" ", ""}, Subject: "x"})
	if !errors.Is(err, ErrNoRecipients) {
		t.Errorf("Send() error = %v, want ErrNoRecipients", err)
	}
}

func TestSend_RequireTLSWithoutStartTLS(t *testing.T) {
	host, port, _, _ := fakeSMTP(t)

	n := New("smtp", Settings{
		Server:     host,
		Port:       port,
		Encryption: EncryptionAlways,
		From:       "alerts@tvtracker.local",
	}, zerolog.Nop())

	err := n.Send(context.Background(), types.Message{To: []string{"a@example.com"}, Subject: "x", Body: "y"})
	if err == nil || !strings.Contains(err.Error(), "STARTTLS") {
		t.Errorf("Send() error = %v, want STARTTLS error", err)
	}
}

func TestSend_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	n := New("smtp", Settings{Server: "127.0.0.1", Port: port, Encryption: EncryptionNever}, zerolog.Nop())
	err = n.Send(context.Background(), types.Message{To: []string{"a@example.com"}, Subject: "x"})
	if err == nil || !strings.Contains(err.Error(), "failed to connect") {
		t.Errorf("Send() error = %v, want connect failure", err)
	}
}

func TestToHTML(t *testing.T) {
	n := New("smtp", Settings{Server: "x", UseHTML: true}, zerolog.Nop())

	html := n.toHTML("Line <1>\n\nLine 2 & more\nLine 3")
	for _, want := range []string{"Line &lt;1&gt;", "</p><p>", "&amp; more<br>Line 3", "Sent by TVTracker"} {
		if !strings.Contains(html, want) {
			t.Errorf("toHTML() missing %q", want)
		}
	}
}

func TestEnvelopeAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TVTracker <alerts@tvtracker.local>", "alerts@tvtracker.local"},
		{"alerts@tvtracker.local", "alerts@tvtracker.local"},
		{"  plain@example.com ", "plain@example.com"},
	}
	for _, tt := range tests {
		if got := envelopeAddress(tt.in); got != tt.want {
			t.Errorf("envelopeAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

