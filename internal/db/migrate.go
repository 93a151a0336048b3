package db

import (
	"context"
	"database/sql"
)

// documentMigration creates the single table backing every document
// collection. Records are JSON objects addressed by (collection, id).
const documentMigration = `
CREATE TABLE IF NOT EXISTS documents (
    collection text NOT NULL,
    id text NOT NULL,
    data jsonb NOT NULL DEFAULT '{}'::jsonb,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS documents_email_idx
ON documents (collection, (data->>'email'));

CREATE INDEX IF NOT EXISTS documents_contact_email_idx
ON documents (collection, (data->>'contactEmail'));

CREATE INDEX IF NOT EXISTS documents_reset_token_idx
ON documents (collection, (data->>'resetPasswordToken'));
`

func RunDocumentMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, documentMigration)
	return err
}
