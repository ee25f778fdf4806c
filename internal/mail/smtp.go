package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"sync"
	"time"

	"pharmacy-store/internal/config"

	"go.uber.org/zap"
)

// ErrClosed is returned by Send before Open or after Close.
var ErrClosed = errors.New("mail: smtp client closed")

// SMTPClient keeps one authenticated connection to the relay. It is
// opened at process start and closed at shutdown; a dropped connection
// is redialled once per Send.
type SMTPClient struct {
	cfg    config.SMTPConfig
	logger *zap.Logger

	mu     sync.Mutex
	client *smtp.Client
	open   bool
}

func NewSMTPClient(cfg config.SMTPConfig, logger *zap.Logger) *SMTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPClient{cfg: cfg, logger: logger}
}

// Open dials and authenticates against the relay.
func (c *SMTPClient) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dial(ctx); err != nil {
		return err
	}
	c.open = true
	c.logger.Info("mail: smtp connected", zap.String("host", c.cfg.Host), zap.Int("port", c.cfg.Port))
	return nil
}

func (c *SMTPClient) Send(ctx context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrClosed
	}

	err := c.deliver(msg)
	if err != nil && ctx.Err() == nil {
		c.logger.Warn("mail: send failed, redialling", zap.String("to", msg.To), zap.Error(err))
		if c.client != nil {
			c.client.Close()
			c.client = nil
		}
		if dialErr := c.dial(ctx); dialErr != nil {
			return fmt.Errorf("mail: redial: %w", dialErr)
		}
		err = c.deliver(msg)
	}
	if err != nil {
		return fmt.Errorf("mail: send to %s: %w", msg.To, err)
	}
	c.logger.Info("mail: sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// Close ends the SMTP session. It is safe to call more than once.
func (c *SMTPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	if c.client == nil {
		return nil
	}
	err := c.client.Quit()
	c.client = nil
	return err
}

func (c *SMTPClient) dial(ctx context.Context) error {
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	d := net.Dialer{Timeout: 10 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, c.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: c.cfg.Host}); err != nil {
			client.Close()
			return err
		}
	}
	if c.cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)); err != nil {
			client.Close()
			return err
		}
	}
	c.client = client
	return nil
}

func (c *SMTPClient) deliver(msg Message) error {
	if c.client == nil {
		return ErrClosed
	}
	from, err := netmail.ParseAddress(c.cfg.From)
	if err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := c.client.Reset(); err != nil {
		return err
	}
	if err := c.client.Mail(from.Address); err != nil {
		return err
	}
	if err := c.client.Rcpt(msg.To); err != nil {
		return err
	}
	w, err := c.client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(compose(c.cfg.From, msg)); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func compose(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
