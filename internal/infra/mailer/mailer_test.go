package mailer

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/authtoken-go/internal/telemetry/logger"
)

// fakeSMTP accepts one session without STARTTLS or AUTH and records it.
type fakeSMTP struct {
	ln net.Listener

	mu       sync.Mutex
	from     string
	rcpt     []string
	data     []byte
	rejectTo bool
}

func newFakeSMTP(t *testing.T, rejectTo bool) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	s := &fakeSMTP{ln: ln, rejectTo: rejectTo}
	t.Cleanup(func() { ln.Close() })
	go s.serve()
	return s
}

func (s *fakeSMTP) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTP) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeSMTP) handle(conn net.Conn) {
	defer conn.Close()
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 fake.test ESMTP")

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch verb {
		case "EHLO", "HELO":
			_ = tp.PrintfLine("250-fake.test")
			_ = tp.PrintfLine("250 8BITMIME")
		case "MAIL":
			s.mu.Lock()
			s.from = line
			s.mu.Unlock()
			_ = tp.PrintfLine("250 OK")
		case "RCPT":
			if s.rejectTo {
				_ = tp.PrintfLine("550 no such user")
				continue
			}
			s.mu.Lock()
			s.rcpt = append(s.rcpt, line)
			s.mu.Unlock()
			_ = tp.PrintfLine("250 OK")
		case "DATA":
			_ = tp.PrintfLine("354 go ahead")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.data = data
			s.mu.Unlock()
			_ = tp.PrintfLine("250 queued")
		case "QUIT":
			_ = tp.PrintfLine("221 bye")
			return
		default:
			_ = tp.PrintfLine("250 OK")
		}
	}
}

func newTestSMTP(t *testing.T, port int) *SMTP {
	t.Helper()
	m, err := NewSMTP(Config{
		Host:    "127.0.0.1",
		Port:    port,
		From:    "Accounts <noreply@example.com>",
		Timeout: 5 * time.Second,
	}, logger.Discard())
	if err != nil {
		t.Fatalf("NewSMTP() error = %v", err)
	}
	return m
}

func TestNewSMTP_Validation(t *testing.T) {
	if _, err := NewSMTP(Config{From: "a@example.com"}, nil); err == nil {
		t.Error("NewSMTP() without host should fail")
	}
	if _, err := NewSMTP(Config{Host: "localhost", From: "not an address"}, nil); err == nil {
		t.Error("NewSMTP() with invalid from should fail")
	}
}

func TestSMTP_Send(t *testing.T) {
	srv := newFakeSMTP(t, false)
	m := newTestSMTP(t, srv.port())

	link := "https://example.com/confirm_email/" + strings.Repeat("A", 64) + "/"
	body := "Hello alice,\n\nConfirm your address: " + link + "\n"

	if err := m.Send(context.Background(), "alice@example.com", "Confirm your email", body); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	if !strings.Contains(srv.from, "<noreply@example.com>") {
		t.Errorf("MAIL FROM = %q", srv.from)
	}
	if len(srv.rcpt) != 1 || !strings.Contains(srv.rcpt[0], "<alice@example.com>") {
		t.Errorf("RCPT TO = %v", srv.rcpt)
	}

	msg, err := mail.ReadMessage(bufio.NewReader(strings.NewReader(string(srv.data))))
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if got := msg.Header.Get("Subject"); got != "Confirm your email" {
		t.Errorf("Subject = %q", got)
	}
	decoded, err := io.ReadAll(quotedprintable.NewReader(msg.Body))
	if err != nil {
		t.Fatalf("decode body error = %v", err)
	}
	if !strings.Contains(string(decoded), link) {
		t.Errorf("body does not contain the full link:\n%s", decoded)
	}
}

func TestSMTP_SendRejectedRecipient(t *testing.T) {
	srv := newFakeSMTP(t, true)
	m := newTestSMTP(t, srv.port())

	err := m.Send(context.Background(), "ghost@example.com", "hi", "body")
	if err == nil || !strings.Contains(err.Error(), "RCPT") {
		t.Errorf("Send() error = %v, want RCPT failure", err)
	}
}

func TestSMTP_SendUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	m := newTestSMTP(t, port)
	if err := m.Send(context.Background(), "a@example.com", "hi", "body"); err == nil {
		t.Error("Send() to closed port should fail")
	}
}

func TestSMTP_SendInvalidRecipient(t *testing.T) {
	m := newTestSMTP(t, 1)
	if err := m.Send(context.Background(), "not an address", "hi", "body"); err == nil {
		t.Error("Send() with invalid recipient should fail")
	}
}

func TestBuildMessage(t *testing.T) {
	from := &mail.Address{Name: "Accounts", Address: "noreply@example.com"}
	to := &mail.Address{Address: "bob@example.com"}
	date := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	raw, err := BuildMessage(from, to, "Grüße", "line one\nline two", date)
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(msg.Header.Get("Subject"))
	if err != nil || subject != "Grüße" {
		t.Errorf("Subject = %q, %v; want Grüße", subject, err)
	}
	if got, _ := msg.Header.Date(); !got.Equal(date) {
		t.Errorf("Date = %v, want %v", got, date)
	}
	if id := msg.Header.Get("Message-ID"); !strings.HasSuffix(id, "@example.com>") {
		t.Errorf("Message-ID = %q", id)
	}

	if _, err := BuildMessage(from, to, "bad\r\nBcc: x@example.com", "", date); err == nil {
		t.Error("BuildMessage() should reject header injection in subject")
	}
}

func TestLog_Send(t *testing.T) {
	var buf strings.Builder
	log, err := logger.New(logger.Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("logger.New() error = %v", err)
	}

	if err := NewLog(log).Send(context.Background(), "a@example.com", "subj", "hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"to":"a@example.com"`, `"subject":"subj"`, `"body":"hello"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

func TestLog_SendMasksConfirmationSecret(t *testing.T) {
	encoded := strings.Repeat("Zx9-", 16)
	body := "Hello alice,\n\nConfirm your address: https://example.com/confirm_email/" + encoded + "/\n"

	// A plain handler: the mailer masks the secret without the redacting logger.
	var buf strings.Builder
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	if err := NewLog(log).Send(context.Background(), "alice@example.com", "Confirm", body); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, encoded) {
		t.Errorf("log output contains the encoded secret: %s", out)
	}
	if !strings.Contains(out, "https://example.com/confirm_email/") || !strings.Contains(out, "Confirm your address") {
		t.Errorf("log output lost the rest of the body: %s", out)
	}
}
