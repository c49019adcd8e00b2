package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ewintr.nl/sermonai/model"
)

type PostgresChannelRepository struct {
	db *sql.DB
}

func NewPostgresChannelRepository(postgres *Postgres) *PostgresChannelRepository {
	return &PostgresChannelRepository{db: postgres.db}
}

// Create inserts the channel if it is new. An existing row is left untouched,
// a re-sync never overwrites channel identity.
func (r *PostgresChannelRepository) Create(ctx context.Context, channel *model.Channel) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO channel (id, name, url, is_active)
VALUES ($1, $2, $3, TRUE)
ON CONFLICT (id) DO NOTHING`,
		channel.ID, channel.Name, channel.URL)
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}

	return nil
}

func (r *PostgresChannelRepository) FindByID(ctx context.Context, id model.ChannelID) (*model.Channel, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, url, is_active, last_sync_at, created_at
FROM channel
WHERE id = $1`, id)

	channel, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find channel: %w", err)
	}

	return channel, nil
}

func (r *PostgresChannelRepository) FindActive(ctx context.Context) ([]*model.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, url, is_active, last_sync_at, created_at
FROM channel
WHERE is_active
ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to find active channels: %w", err)
	}
	defer rows.Close()

	channels := []*model.Channel{}
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to find active channels: %w", err)
		}
		channels = append(channels, channel)
	}

	return channels, rows.Err()
}

func (r *PostgresChannelRepository) SetLastSync(ctx context.Context, id model.ChannelID, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `
UPDATE channel
SET last_sync_at = $2
WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("failed to set last sync: %w", err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChannel(row scanner) (*model.Channel, error) {
	var channel model.Channel
	var lastSync sql.NullTime
	if err := row.Scan(&channel.ID, &channel.Name, &channel.URL, &channel.IsActive, &lastSync, &channel.CreatedAt); err != nil {
		return nil, err
	}
	if lastSync.Valid {
		channel.LastSyncAt = lastSync.Time
	}

	return &channel, nil
}
