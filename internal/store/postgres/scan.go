package postgres

import (
	"database/sql"
	"encoding/json"

	"github.com/alfredjeanlab/trellis/internal/store"
)

// scannable is satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanDocument(row scannable) (*store.Document, error) {
	var d store.Document
	var value []byte
	if err := row.Scan(&d.UserID, &value, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Value = json.RawMessage(value)
	return &d, nil
}

// scanDocuments scans multiple rows into a slice of documents.
func scanDocuments(rows *sql.Rows) ([]*store.Document, error) {
	var docs []*store.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
