package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a Postgres-backed ObjectStore, adapted from the teacher
// repository's internal/db package: the same table-per-concern layout
// (commits, blobs, a path/tree registry) generalized from a
// single-parent delta chain to a full multi-parent commit graph, since
// blame must walk merges.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pooled connection to the object-store database.
// Pool sizing mirrors the teacher's internal/db.Connect: enough
// connections for a concurrent blame worker pool, capped well below
// Postgres' default max_connections.
func Connect(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("objstore: invalid connection url: %w", err)
	}
	cfg.MaxConns = 32
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("objstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("objstore: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Reader is a single-connection handle to the store, held from NewReader
// until Release. The scheduler's blame workers do not use it; they share
// the pooled Store.
type Reader struct {
	conn *pgxpool.Conn
}

// NewReader acquires a dedicated connection from the pool.
func (s *Store) NewReader(ctx context.Context) (*Reader, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Reader{conn: conn}, nil
}

// Release returns the connection to the pool. Callers must call this
// exactly once when the job completes.
func (r *Reader) Release() {
	r.conn.Release()
}

func (r *Reader) Size(ctx context.Context, id ObjectID) (int64, error) {
	var size int64
	err := r.conn.QueryRow(ctx, `SELECT size FROM coblame_blobs WHERE id = $1`, string(id)).Scan(&size)
	if err == pgx.ErrNoRows {
		return 0, &ErrMissingObject{ID: id}
	}
	return size, err
}

func (r *Reader) Open(ctx context.Context, id ObjectID) (io.ReadCloser, error) {
	var content []byte
	err := r.conn.QueryRow(ctx, `SELECT content FROM coblame_blobs WHERE id = $1`, string(id)).Scan(&content)
	if err == pgx.ErrNoRows {
		return nil, &ErrMissingObject{ID: id}
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (r *Reader) Commit(ctx context.Context, id ObjectID) (*CommitInfo, error) {
	return queryCommit(ctx, r.conn, id)
}

func (r *Reader) Tree(ctx context.Context, commit ObjectID) ([]TreeEntry, error) {
	return queryTree(ctx, r.conn, commit)
}

func (r *Reader) Head(ctx context.Context) (ObjectID, bool, error) {
	return queryHead(ctx, r.conn)
}

// Size implements ObjectStore on the pooled Store directly, for
// callers that don't need a dedicated reader.
func (s *Store) Size(ctx context.Context, id ObjectID) (int64, error) {
	var size int64
	err := s.pool.QueryRow(ctx, `SELECT size FROM coblame_blobs WHERE id = $1`, string(id)).Scan(&size)
	if err == pgx.ErrNoRows {
		return 0, &ErrMissingObject{ID: id}
	}
	return size, err
}

func (s *Store) Open(ctx context.Context, id ObjectID) (io.ReadCloser, error) {
	var content []byte
	err := s.pool.QueryRow(ctx, `SELECT content FROM coblame_blobs WHERE id = $1`, string(id)).Scan(&content)
	if err == pgx.ErrNoRows {
		return nil, &ErrMissingObject{ID: id}
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (s *Store) Commit(ctx context.Context, id ObjectID) (*CommitInfo, error) {
	return queryCommit(ctx, s.pool, id)
}

func (s *Store) Tree(ctx context.Context, commit ObjectID) ([]TreeEntry, error) {
	return queryTree(ctx, s.pool, commit)
}

func (s *Store) Head(ctx context.Context) (ObjectID, bool, error) {
	return queryHead(ctx, s.pool)
}

// querier is satisfied by both *pgxpool.Pool and *pgxpool.Conn, so the
// query bodies are shared between the pooled Store and a cloned Reader.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func queryCommit(ctx context.Context, q querier, id ObjectID) (*CommitInfo, error) {
	info := &CommitInfo{ID: id}
	err := q.QueryRow(ctx,
		`SELECT author_email, committer_time, committer_date FROM coblame_commits WHERE id = $1`,
		string(id),
	).Scan(&info.AuthorEmail, &info.CommitTime, &info.CommitterDate)
	if err == pgx.ErrNoRows {
		return nil, &ErrMissingObject{ID: id}
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx,
		`SELECT parent_id FROM coblame_commit_parents WHERE commit_id = $1 ORDER BY seq`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return nil, err
		}
		info.ParentIDs = append(info.ParentIDs, ObjectID(pid))
	}
	return info, rows.Err()
}

func queryTree(ctx context.Context, q querier, commit ObjectID) ([]TreeEntry, error) {
	rows, err := q.Query(ctx,
		`SELECT path, kind, blob_id FROM coblame_tree_entries WHERE commit_id = $1 ORDER BY path`,
		string(commit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []TreeEntry
	for rows.Next() {
		var path, blobID string
		var kind int
		if err := rows.Scan(&path, &kind, &blobID); err != nil {
			return nil, err
		}
		if EntryKind(kind) != KindRegular {
			continue
		}
		entries = append(entries, TreeEntry{Path: path, Kind: EntryKind(kind), Blob: ObjectID(blobID)})
	}
	return entries, rows.Err()
}

func queryHead(ctx context.Context, q querier) (ObjectID, bool, error) {
	var commitID string
	err := q.QueryRow(ctx, `SELECT commit_id FROM coblame_refs WHERE name = 'HEAD'`).Scan(&commitID)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return ObjectID(commitID), true, nil
}
