package models

import "time"

// Credential stores provider-specific secrets for a user, such as the SMS
// carrier account or a chat webhook URL. Secret shape is provider-defined.
type Credential struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"  validate:"required"`
	Provider  string         `json:"provider" validate:"required"`
	Secret    map[string]any `json:"secret"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SecretString returns a string field from the secret map, empty when absent.
func (c *Credential) SecretString(key string) string {
	if c == nil || c.Secret == nil {
		return ""
	}

	if s, ok := c.Secret[key].(string); ok {
		return s
	}

	return ""
}

// Connection is an OAuth-style link to an external CRM account. Tokens are
// refreshed by the CRM handler shortly before expiry and written back.
type Connection struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"  validate:"required"`
	Provider     string         `json:"provider" validate:"required"`
	BaseURL      string         `json:"base_url"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Config       map[string]any `json:"config,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ExpiresWithin reports whether the access token expires inside d.
func (c *Connection) ExpiresWithin(d time.Duration) bool {
	return !c.ExpiresAt.IsZero() && time.Until(c.ExpiresAt) < d
}

// PhoneNumber binds a provisioned carrier number to an assistant. Messaging
// and voice-call handlers resolve their sender number through it.
type PhoneNumber struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	AssistantID string    `json:"assistant_id"`
	Number      string    `json:"number" validate:"required"`
	CreatedAt   time.Time `json:"created_at"`
}
