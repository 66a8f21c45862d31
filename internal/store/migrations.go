package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "atoms: nodes and links with truth and attention values",
		SQL: `
CREATE TABLE atoms (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    type          TEXT NOT NULL,
    name          TEXT,

    -- Truth value; NULL when absent
    tv_strength   REAL CHECK (tv_strength IS NULL OR (tv_strength >= 0 AND tv_strength <= 1)),
    tv_confidence REAL CHECK (tv_confidence IS NULL OR (tv_confidence >= 0 AND tv_confidence <= 1)),

    -- Attention value; NULL when absent
    sti           INTEGER,
    lti           INTEGER,
    vlti          INTEGER CHECK (vlti IS NULL OR vlti IN (0, 1)),

    created_at    INTEGER NOT NULL
);

CREATE UNIQUE INDEX idx_atoms_node ON atoms(type, name) WHERE name IS NOT NULL;
CREATE INDEX idx_atoms_type ON atoms(type);
`,
	},
	{
		Version:     2,
		Description: "atom_outgoing: ordered link targets",
		SQL: `
CREATE TABLE atom_outgoing (
    link_id   INTEGER NOT NULL,
    position  INTEGER NOT NULL,
    target_id INTEGER NOT NULL,

    PRIMARY KEY (link_id, position),
    FOREIGN KEY (link_id)   REFERENCES atoms(id) ON DELETE CASCADE,
    FOREIGN KEY (target_id) REFERENCES atoms(id)
);

CREATE INDEX idx_outgoing_target ON atom_outgoing(target_id);
`,
	},
	{
		Version:     3,
		Description: "bank: persisted fund balances",
		SQL: `
CREATE TABLE bank (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    sti_funds  INTEGER NOT NULL,
    lti_funds  INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
