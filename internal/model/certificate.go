package model

import "time"

// Certificate describes a certificate managed by certbot on this host.
type Certificate struct {
	Name    string     `json:"name"`
	Domains []string   `json:"domains"`
	Expiry  *time.Time `json:"expiry,omitempty"`
	Path    string     `json:"path,omitempty"`
	Valid   bool       `json:"valid"`
}

// TLS status values reported for a site.
const (
	TLSStatusActive   = "active"
	TLSStatusInactive = "inactive"
	TLSStatusUnknown  = "unknown"
)

// TLSStatus is the certificate state of one site.
type TLSStatus struct {
	Domain      string       `json:"domain"`
	SSLEnabled  bool         `json:"ssl_enabled"`
	Status      string       `json:"status"`
	Certificate *Certificate `json:"certificate,omitempty"`
	Error       string       `json:"error,omitempty"`
}
