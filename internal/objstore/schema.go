package objstore

import (
	"context"
	"strconv"
)

// SchemaVersion is bumped whenever the table layout changes in a way
// existing databases can't read transparently.
const SchemaVersion = 1

// InitSchema creates the coblame object-store tables if they do not
// already exist. Grounded on the teacher's internal/db.InitSchema: one
// helper per table, called in dependency order.
func (s *Store) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS coblame_metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS coblame_blobs (
			id        TEXT PRIMARY KEY,
			content   BYTEA NOT NULL,
			size      BIGINT NOT NULL,
			is_binary BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS coblame_commits (
			id             TEXT PRIMARY KEY,
			tree_id        TEXT NOT NULL,
			author_email   TEXT NOT NULL,
			committer_time BIGINT NOT NULL,
			committer_date TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS coblame_commit_parents (
			commit_id TEXT NOT NULL REFERENCES coblame_commits(id),
			parent_id TEXT NOT NULL,
			seq       INT  NOT NULL,
			PRIMARY KEY (commit_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS coblame_tree_entries (
			commit_id TEXT NOT NULL REFERENCES coblame_commits(id),
			path      TEXT NOT NULL,
			kind      SMALLINT NOT NULL,
			blob_id   TEXT NOT NULL,
			PRIMARY KEY (commit_id, path)
		)`,
		`CREATE TABLE IF NOT EXISTS coblame_refs (
			name      TEXT PRIMARY KEY,
			commit_id TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS coblame_commit_parents_commit_idx
			ON coblame_commit_parents (commit_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	var discard string
	return s.pool.QueryRow(ctx,
		`INSERT INTO coblame_metadata (key, value) VALUES ('schema_version', $1)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
		 RETURNING value`, strconv.Itoa(SchemaVersion)).Scan(&discard)
}
