package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/persistence"
)

func (p *Persistence) CredentialByUserAndProvider(ctx context.Context, userID, provider string) (*models.Credential, error) {
	query := `
		SELECT id, user_id, provider, secret, created_at, updated_at
		FROM credentials
		WHERE user_id = $1 AND provider = $2
	`

	var (
		credential models.Credential
		secret     []byte
	)

	err := p.db.QueryRowContext(ctx, query, userID, provider).Scan(
		&credential.ID,
		&credential.UserID,
		&credential.Provider,
		&secret,
		&credential.CreatedAt,
		&credential.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrCredentialNotFound
		}

		return nil, fmt.Errorf("failed to query credential: %w", err)
	}

	err = json.Unmarshal(secret, &credential.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential secret: %w", err)
	}

	return &credential, nil
}

func (p *Persistence) SaveCredential(ctx context.Context, credential *models.Credential) error {
	secret, err := json.Marshal(credential.Secret)
	if err != nil {
		return fmt.Errorf("failed to marshal credential secret: %w", err)
	}

	query := `
		INSERT INTO credentials (id, user_id, provider, secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			secret = EXCLUDED.secret,
			updated_at = EXCLUDED.updated_at
	`

	_, err = p.db.ExecContext(ctx, query,
		credential.ID,
		credential.UserID,
		credential.Provider,
		secret,
		credential.CreatedAt,
		credential.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

func (p *Persistence) ConnectionByID(ctx context.Context, id string) (*models.Connection, error) {
	query := `
		SELECT id, user_id, provider, base_url, access_token, refresh_token, expires_at, config, created_at, updated_at
		FROM connections
		WHERE id = $1
	`

	var (
		connection models.Connection
		expiresAt  sql.NullTime
		config     []byte
	)

	err := p.db.QueryRowContext(ctx, query, id).Scan(
		&connection.ID,
		&connection.UserID,
		&connection.Provider,
		&connection.BaseURL,
		&connection.AccessToken,
		&connection.RefreshToken,
		&expiresAt,
		&config,
		&connection.CreatedAt,
		&connection.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrConnectionNotFound
		}

		return nil, fmt.Errorf("failed to query connection: %w", err)
	}

	if expiresAt.Valid {
		connection.ExpiresAt = expiresAt.Time
	}

	err = json.Unmarshal(config, &connection.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection config: %w", err)
	}

	return &connection, nil
}

func (p *Persistence) SaveConnection(ctx context.Context, connection *models.Connection) error {
	config, err := json.Marshal(connection.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal connection config: %w", err)
	}

	query := `
		INSERT INTO connections (id, user_id, provider, base_url, access_token, refresh_token, expires_at, config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			base_url = EXCLUDED.base_url,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			config = EXCLUDED.config,
			updated_at = EXCLUDED.updated_at
	`

	var expiresAt any
	if !connection.ExpiresAt.IsZero() {
		expiresAt = connection.ExpiresAt
	}

	_, err = p.db.ExecContext(ctx, query,
		connection.ID,
		connection.UserID,
		connection.Provider,
		connection.BaseURL,
		connection.AccessToken,
		connection.RefreshToken,
		expiresAt,
		config,
		connection.CreatedAt,
		connection.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save connection: %w", err)
	}

	return nil
}

func (p *Persistence) PhoneNumberByAssistant(ctx context.Context, assistantID string) (*models.PhoneNumber, error) {
	query := `
		SELECT id, user_id, assistant_id, number, created_at
		FROM phone_numbers
		WHERE assistant_id = $1
	`

	var number models.PhoneNumber

	err := p.db.QueryRowContext(ctx, query, assistantID).Scan(
		&number.ID,
		&number.UserID,
		&number.AssistantID,
		&number.Number,
		&number.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrPhoneNumberNotFound
		}

		return nil, fmt.Errorf("failed to query phone number: %w", err)
	}

	return &number, nil
}

func (p *Persistence) SavePhoneNumber(ctx context.Context, number *models.PhoneNumber) error {
	query := `
		INSERT INTO phone_numbers (id, user_id, assistant_id, number, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (assistant_id) DO UPDATE SET
			number = EXCLUDED.number
	`

	_, err := p.db.ExecContext(ctx, query,
		number.ID,
		number.UserID,
		number.AssistantID,
		number.Number,
		number.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save phone number: %w", err)
	}

	return nil
}
