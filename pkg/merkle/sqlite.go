package merkle

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	hash        TEXT NOT NULL UNIQUE,
	parent_hash TEXT,
	bucket      TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_hash);
`

// SQLiteStorer persists the DAG in a SQLite database.
type SQLiteStorer struct {
	db *sql.DB
}

// NewSQLiteStorer opens (creating if needed) the database at path.
// ":memory:" gives a private in-memory database.
func NewSQLiteStorer(path string) (*SQLiteStorer, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStorer{db: db}, nil
}

func (s *SQLiteStorer) Put(ctx context.Context, node *Node) (bool, error) {
	if node == nil {
		return false, errors.New("cannot store nil node")
	}

	bucket, err := json.Marshal(node.Bucket)
	if err != nil {
		return false, fmt.Errorf("encoding bucket: %w", err)
	}

	var parent sql.NullString
	if node.ParentHash != nil {
		parent = sql.NullString{String: *node.ParentHash, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO nodes (hash, parent_hash, bucket, created_at) VALUES (?, ?, ?, ?)`,
		node.Hash, parent, string(bucket), time.Now().UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("inserting node: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting node: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStorer) Get(ctx context.Context, hash string) (*Node, error) {
	nodes, err := s.query(ctx, `SELECT hash, parent_hash, bucket FROM nodes WHERE hash = ?`, hash)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrNotFound{Hash: hash}
	}
	return nodes[0], nil
}

func (s *SQLiteStorer) Has(ctx context.Context, hash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE hash = ?`, hash).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("checking node: %w", err)
	}
	return true, nil
}

func (s *SQLiteStorer) GetByParent(ctx context.Context, parentHash *string) ([]*Node, error) {
	if parentHash == nil {
		return s.Roots(ctx)
	}
	return s.query(ctx, `SELECT hash, parent_hash, bucket FROM nodes WHERE parent_hash = ? ORDER BY seq`, *parentHash)
}

func (s *SQLiteStorer) List(ctx context.Context) ([]*Node, error) {
	return s.query(ctx, `SELECT hash, parent_hash, bucket FROM nodes ORDER BY seq`)
}

func (s *SQLiteStorer) Roots(ctx context.Context) ([]*Node, error) {
	return s.query(ctx, `SELECT hash, parent_hash, bucket FROM nodes WHERE parent_hash IS NULL ORDER BY seq`)
}

func (s *SQLiteStorer) Leaves(ctx context.Context) ([]*Node, error) {
	return s.query(ctx, `
		SELECT n.hash, n.parent_hash, n.bucket FROM nodes n
		WHERE NOT EXISTS (SELECT 1 FROM nodes c WHERE c.parent_hash = n.hash)
		ORDER BY n.seq`)
}

func (s *SQLiteStorer) Ancestry(ctx context.Context, hash string) ([]*Node, error) {
	return walkAncestry(ctx, hash, s.Get)
}

func (s *SQLiteStorer) Depth(ctx context.Context, hash string) (int, error) {
	a, err := s.Ancestry(ctx, hash)
	if err != nil {
		return 0, err
	}
	return len(a) - 1, nil
}

func (s *SQLiteStorer) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorer) query(ctx context.Context, q string, args ...any) ([]*Node, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	out := []*Node{}
	for rows.Next() {
		var (
			n      Node
			parent sql.NullString
			bucket string
		)
		if err := rows.Scan(&n.Hash, &parent, &bucket); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		if parent.Valid {
			p := parent.String
			n.ParentHash = &p
		}
		if err := json.Unmarshal([]byte(bucket), &n.Bucket); err != nil {
			return nil, fmt.Errorf("decoding bucket for %s: %w", n.Hash, err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}
