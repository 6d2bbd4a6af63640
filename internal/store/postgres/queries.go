package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alfredjeanlab/trellis/internal/store"
)

// settingsColumns is the column list used for SELECT statements on the settings table.
const settingsColumns = `user_id, value, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryGetSettings(ctx context.Context, db executor, userID string) (*store.Document, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+settingsColumns+`
		FROM settings WHERE user_id = $1`, userID)
	return scanDocument(row)
}

func queryPutSettings(ctx context.Context, db executor, d *store.Document) error {
	if d.UserID == "" {
		return fmt.Errorf("put settings: user id is required")
	}
	return db.QueryRowContext(ctx, `
		INSERT INTO settings (user_id, value)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET value = $2, updated_at = NOW()
		RETURNING created_at, updated_at`,
		d.UserID, []byte(d.Value),
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func queryListSettings(ctx context.Context, db executor) ([]*store.Document, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+settingsColumns+`
		FROM settings ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func queryDeleteSettings(ctx context.Context, db executor, userID string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM settings WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
