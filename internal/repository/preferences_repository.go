package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// PreferenceRepository stores serialized per-viewer preference records.
// Values are opaque strings; decoding them is the caller's business.
type PreferenceRepository interface {
	Get(ctx context.Context, userID, key string) (string, bool, error)
	Put(ctx context.Context, userID, key, value string) error
}

type preferenceRepository struct {
	db *sqlx.DB
}

var _ PreferenceRepository = (*preferenceRepository)(nil)

func NewPreferenceRepository(db *sqlx.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) Get(ctx context.Context, userID, key string) (string, bool, error) {
	query := r.db.Rebind(`SELECT value FROM preferences WHERE user_id = ? AND pref_key = ?`)

	var value string
	err := r.db.GetContext(ctx, &value, query, userID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		slog.Info(err.Error())
		return "", false, err
	}

	return value, true, nil
}

func (r *preferenceRepository) Put(ctx context.Context, userID, key, value string) error {
	query := `
		INSERT INTO preferences (user_id, pref_key, value, updated_at)
		VALUES (:user_id, :pref_key, :value, :updated_at)
		ON CONFLICT (user_id, pref_key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	_, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"user_id":    userID,
		"pref_key":   key,
		"value":      value,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
