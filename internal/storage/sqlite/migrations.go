package sqlite

import "database/sql"

// schema sets up the local tables. It runs on every open.
// The credential table holds at most one row (id = 1).
const schema = `
CREATE TABLE IF NOT EXISTS credential (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    token TEXT NOT NULL,
    sealed INTEGER NOT NULL DEFAULT 0,
    user_json TEXT,
    saved_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS contacts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
