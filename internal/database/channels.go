package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"museumhub/internal/models"
)

// GetOrCreateChannel returns the channel row for name, creating it on first
// use. INSERT OR IGNORE followed by a re-select keeps a concurrent duplicate
// create from violating the name uniqueness constraint.
func (d *Database) GetOrCreateChannel(ctx context.Context, name string, chType models.ChannelType) (*models.Channel, error) {
	if _, err := d.db.ExecContext(ctx, insertChannelIgnoreQuery, name, string(chType), nil); err != nil {
		return nil, fmt.Errorf("failed to create channel %s: %w", name, err)
	}
	return d.GetChannelByName(ctx, name)
}

// GetChannelByName returns the channel row for name, or nil when absent.
func (d *Database) GetChannelByName(ctx context.Context, name string) (*models.Channel, error) {
	var (
		ch        models.Channel
		chType    string
		configRaw sql.NullString
	)

	err := d.db.QueryRowContext(ctx, selectChannelByNameQuery, name).Scan(
		&ch.ID, &ch.Name, &chType, &ch.IsActive, &configRaw, &ch.CreatedAt, &ch.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel %s: %w", name, err)
	}

	ch.Type = models.ChannelType(chType)
	if configRaw.Valid && configRaw.String != "" {
		if err := json.Unmarshal([]byte(configRaw.String), &ch.Config); err != nil {
			return nil, fmt.Errorf("failed to parse channel config: %w", err)
		}
	}
	return &ch, nil
}
