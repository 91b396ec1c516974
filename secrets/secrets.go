// Package secrets loads the service account payload used to authenticate
// against BigQuery. The payload lives in a local yaml file under the
// "gcp_service_account" key and is never written anywhere else.
package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Key is the section of the secrets file holding the service account.
const Key = "gcp_service_account"

var ErrNotFound = errors.New("secrets file does not contain a " + Key + " section")

// ServiceAccount is the structured service account payload. Json tags match
// the google service account file format so the payload can be handed to the
// client library as credentials json.
type ServiceAccount struct {
	Type                string `yaml:"type" json:"type"`
	ProjectID           string `yaml:"project_id" json:"project_id"`
	PrivateKeyID        string `yaml:"private_key_id" json:"private_key_id,omitempty"`
	PrivateKey          string `yaml:"private_key" json:"private_key"`
	ClientEmail         string `yaml:"client_email" json:"client_email"`
	ClientID            string `yaml:"client_id" json:"client_id,omitempty"`
	AuthURI             string `yaml:"auth_uri" json:"auth_uri,omitempty"`
	TokenURI            string `yaml:"token_uri" json:"token_uri,omitempty"`
	AuthProviderCertURL string `yaml:"auth_provider_x509_cert_url" json:"auth_provider_x509_cert_url,omitempty"`
	ClientCertURL       string `yaml:"client_x509_cert_url" json:"client_x509_cert_url,omitempty"`
}

// Validate checks the fields without which client construction cannot work.
func (sa *ServiceAccount) Validate() error {
	required := map[string]string{
		"type":         sa.Type,
		"project_id":   sa.ProjectID,
		"private_key":  sa.PrivateKey,
		"client_email": sa.ClientEmail,
	}

	for field, value := range required {
		if value == "" {
			return fmt.Errorf("service account payload is missing required field %q", field)
		}
	}

	if sa.Type != "service_account" {
		return fmt.Errorf("unexpected credential type: %q", sa.Type)
	}

	return nil
}

// JSON renders the payload as service account credentials json.
func (sa *ServiceAccount) JSON() ([]byte, error) {
	out := *sa
	if out.TokenURI == "" {
		out.TokenURI = "https://oauth2.googleapis.com/token"
	}

	b, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}
	return b, nil
}

// secretsFile is the on-disk shape of the secrets file.
type secretsFile struct {
	GCPServiceAccount *ServiceAccount `yaml:"gcp_service_account"`
}

// DefaultPath returns the default secrets file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "secrets.yaml"
	}
	return filepath.Join(dir, "bqexplore", "secrets.yaml")
}

// Load reads and validates the service account payload from a secrets file.
func Load(path string) (*ServiceAccount, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}

	return Parse(raw)
}

// Parse reads and validates the service account payload from yaml content.
func Parse(raw []byte) (*ServiceAccount, error) {
	var file secretsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal: %w", err)
	}

	if file.GCPServiceAccount == nil {
		return nil, ErrNotFound
	}

	if err := file.GCPServiceAccount.Validate(); err != nil {
		return nil, err
	}

	return file.GCPServiceAccount, nil
}

// Provider loads the secrets file once per process and caches the outcome,
// error included. Safe for concurrent use.
type Provider struct {
	path string

	once sync.Once
	sa   *ServiceAccount
	err  error
}

func NewProvider(path string) *Provider {
	if path == "" {
		path = DefaultPath()
	}
	return &Provider{path: path}
}

func (p *Provider) Path() string {
	return p.path
}

// ServiceAccount returns the memoized payload. Repeated calls return the
// same value without touching the filesystem again.
func (p *Provider) ServiceAccount() (*ServiceAccount, error) {
	p.once.Do(func() {
		p.sa, p.err = Load(p.path)
	})
	return p.sa, p.err
}
