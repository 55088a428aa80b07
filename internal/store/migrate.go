package store

import (
	"fmt"

	"github.com/vthunder/chronograph/internal/embedding"
	"github.com/vthunder/chronograph/internal/logging"
)

// migrate creates the schema if absent and applies incremental migrations,
// following the teacher's schema_version + ALTER-TABLE-if-missing pattern.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT NOT NULL,
		version INTEGER NOT NULL,
		type TEXT NOT NULL DEFAULT 'content',
		content TEXT NOT NULL,
		metadata_json TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		valid_from TEXT NOT NULL,
		valid_until TEXT,
		supersedes TEXT,
		PRIMARY KEY (id, version)
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_id_version ON nodes(id, version);
	CREATE INDEX IF NOT EXISTS idx_nodes_created_at ON nodes(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_nodes_valid_from ON nodes(valid_from);
	CREATE INDEX IF NOT EXISTS idx_nodes_valid_until ON nodes(valid_until);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_current ON nodes(id) WHERE valid_until IS NULL;

	CREATE TABLE IF NOT EXISTS edges (
		from_node TEXT NOT NULL,
		to_node TEXT NOT NULL,
		relation TEXT NOT NULL DEFAULT 'related',
		weight REAL NOT NULL DEFAULT 1.0,
		metadata_json TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		valid_from TEXT NOT NULL,
		valid_until TEXT,
		temporal_weight REAL NOT NULL DEFAULT 1.0,
		PRIMARY KEY (from_node, to_node, valid_from)
	);

	CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_node);
	CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_node);
	CREATE INDEX IF NOT EXISTS idx_edges_valid_from ON edges(valid_from);
	CREATE INDEX IF NOT EXISTS idx_edges_valid_until ON edges(valid_until);
	CREATE INDEX IF NOT EXISTS idx_edges_relation_weight ON edges(relation, weight);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_edges_current ON edges(from_node, to_node) WHERE valid_until IS NULL;

	CREATE TABLE IF NOT EXISTS vec_map (
		rowid INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		embedding BLOB
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if err := s.migrateLegacySingleKeySchema(); err != nil {
		return fmt.Errorf("legacy schema migration: %w", err)
	}

	return s.runIncrementalMigrations()
}

// migrateLegacySingleKeySchema copies the rows of a pre-bitemporal table
// named nodes_legacy, when one exists, into the composite-key nodes table
// as version 1, backfilling valid_from from the legacy row's valid_from,
// then created_at, then now, and drops nodes_legacy afterwards. Only a
// table under that name is detected: an existing nodes table with the old
// single-key layout is not inspected or rewritten. Foreign keys are
// already disabled for the connection, so no separate toggle is needed
// around the copy.
func (s *Store) migrateLegacySingleKeySchema() error {
	var legacyTables int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'nodes_legacy'`).Scan(&legacyTables); err != nil || legacyTables == 0 {
		return nil // no legacy table, nothing to do
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO nodes (id, version, type, content, metadata_json, created_at, valid_from, valid_until, supersedes)
		SELECT id, 1, COALESCE(type, 'content'), content, metadata_json, created_at,
		       COALESCE(valid_from, created_at, CURRENT_TIMESTAMP), NULL, NULL
		FROM nodes_legacy
		WHERE id NOT IN (SELECT id FROM nodes)
	`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DROP TABLE nodes_legacy`); err != nil {
		return err
	}
	logging.Info("store", "migrated legacy single-key nodes table to bitemporal schema")
	return tx.Commit()
}

func (s *Store) schemaVersion() int {
	var version int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return 1
	}
	return version
}

// runIncrementalMigrations applies the FTS5 and vector-index migrations.
// Both are best-effort: a failure here (engine built without the relevant
// extension) leaves the row tables intact and the corresponding feature
// degraded per spec.md §4.1 error conditions, not fatal.
func (s *Store) runIncrementalMigrations() error {
	version := s.schemaVersion()

	if version < 2 {
		logging.Info("store", "migrating to schema v2: FTS5 nodes_fts index")
		if _, err := s.db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(id UNINDEXED, content)`); err != nil {
			logging.Info("store", "migration v2 warning (FTS5 unavailable): %v", err)
		} else {
			_, _ = s.db.Exec(`
				INSERT INTO nodes_fts(id, content)
				SELECT id, content FROM nodes WHERE valid_until IS NULL
			`)
		}
		s.db.Exec(`INSERT INTO schema_version (version) VALUES (2)`)
		version = 2
	}

	if version < 3 {
		logging.Info("store", "migrating to schema v3: vec_nodes ANN index (dim=%d)", embedding.Dim)
		createVec := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vec_nodes USING vec0(embedding float[%d])`, embedding.Dim)
		if _, err := s.db.Exec(createVec); err != nil {
			logging.Info("store", "migration v3 warning (sqlite-vec unavailable): %v", err)
		}
		s.db.Exec(`INSERT INTO schema_version (version) VALUES (3)`)
		version = 3
	}

	if version < 4 {
		logging.Info("store", "migrating to schema v4: vec_map.embedding fallback column")
		if _, err := s.db.Exec(`ALTER TABLE vec_map ADD COLUMN embedding BLOB`); err != nil {
			logging.Info("store", "migration v4 note (embedding column already present): %v", err)
		}
		s.db.Exec(`INSERT INTO schema_version (version) VALUES (4)`)
		version = 4
	}

	return nil
}
