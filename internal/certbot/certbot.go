// Package certbot drives the certbot CLI to issue, renew, delete and list
// Let's Encrypt certificates for hosted sites.
package certbot

import (
	"bufio"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/command"
	"github.com/edvin/wppanel/internal/fault"
	"github.com/edvin/wppanel/internal/model"
)

const binary = "certbot"

// Client wraps the certbot binary.
type Client struct {
	runner   command.Runner
	plugin   string
	email    string
	logger   zerolog.Logger
	lookPath func(string) (string, error)
}

// NewClient creates a Client that installs certificates with the given
// certbot plugin (for example "nginx") and registers them under email.
func NewClient(logger zerolog.Logger, runner command.Runner, plugin, email string) *Client {
	return &Client{
		runner:   runner,
		plugin:   plugin,
		email:    email,
		logger:   logger.With().Str("component", "certbot").Logger(),
		lookPath: exec.LookPath,
	}
}

// Available reports an error when certbot is not installed.
func (c *Client) Available() error {
	if _, err := c.lookPath(binary); err != nil {
		return fault.New(fault.KindCommand, "certbot not installed")
	}
	return nil
}

// Issue obtains and installs a certificate for domain.
func (c *Client) Issue(ctx context.Context, domain string) error {
	if err := c.Available(); err != nil {
		return err
	}
	c.logger.Info().Str("domain", domain).Msg("issuing certificate")
	_, err := c.runner.Run(ctx, command.Cmd{Name: binary, Args: []string{
		"--" + c.plugin,
		"-d", domain,
		"--non-interactive",
		"--agree-tos",
		"--email", c.email,
	}})
	return err
}

// Delete removes the certificate named after domain.
func (c *Client) Delete(ctx context.Context, domain string) error {
	if err := c.Available(); err != nil {
		return err
	}
	c.logger.Info().Str("domain", domain).Msg("deleting certificate")
	_, err := c.runner.Run(ctx, command.Cmd{Name: binary, Args: []string{
		"delete", "--cert-name", domain, "--non-interactive",
	}})
	return err
}

// Renew renews every certificate close to expiry.
func (c *Client) Renew(ctx context.Context) error {
	if err := c.Available(); err != nil {
		return err
	}
	c.logger.Info().Msg("renewing certificates")
	_, err := c.runner.Run(ctx, command.Cmd{Name: binary, Args: []string{"renew", "--quiet"}})
	return err
}

// Certificates lists the certificates certbot manages. The raw command
// output is returned alongside the parsed entries.
func (c *Client) Certificates(ctx context.Context) ([]model.Certificate, string, error) {
	if err := c.Available(); err != nil {
		return nil, "", err
	}
	out, err := c.runner.Run(ctx, command.Cmd{Name: binary, Args: []string{"certificates"}})
	if err != nil {
		return nil, string(out), err
	}
	return ParseCertificates(string(out)), string(out), nil
}

// Find returns the certificate covering domain, or nil.
func Find(certs []model.Certificate, domain string) *model.Certificate {
	for i := range certs {
		for _, d := range certs[i].Domains {
			if d == domain {
				return &certs[i]
			}
		}
	}
	return nil
}

// ParseCertificates parses the human-readable output of
// "certbot certificates":
//
//	Certificate Name: example.com
//	  Domains: example.com www.example.com
//	  Expiry Date: 2024-06-01 10:00:00+00:00 (VALID: 89 days)
//	  Certificate Path: /etc/letsencrypt/live/example.com/fullchain.pem
func ParseCertificates(output string) []model.Certificate {
	var certs []model.Certificate
	var cur *model.Certificate

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "Certificate Name":
			certs = append(certs, model.Certificate{Name: value})
			cur = &certs[len(certs)-1]
		case "Domains":
			if cur != nil {
				cur.Domains = strings.Fields(value)
			}
		case "Expiry Date":
			if cur != nil {
				cur.Expiry, cur.Valid = parseExpiry(value)
			}
		case "Certificate Path":
			if cur != nil {
				cur.Path = value
			}
		}
	}
	return certs
}

// parseExpiry handles "2024-06-01 10:00:00+00:00 (VALID: 89 days)".
func parseExpiry(value string) (*time.Time, bool) {
	stamp, rest, _ := strings.Cut(value, " (")
	valid := strings.HasPrefix(rest, "VALID")
	t, err := time.Parse("2006-01-02 15:04:05-07:00", stamp)
	if err != nil {
		return nil, valid
	}
	return &t, valid
}
