package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/docsim/pkg/docsim/internalerr"
	"github.com/cognicore/docsim/pkg/docsim/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS docs (
	label TEXT PRIMARY KEY,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS doc_tokens (
	label TEXT NOT NULL,
	position INTEGER NOT NULL,
	token TEXT NOT NULL,
	PRIMARY KEY(label, position),
	FOREIGN KEY(label) REFERENCES docs(label) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS models (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	vector_size INTEGER NOT NULL,
	min_count INTEGER NOT NULL,
	epochs INTEGER NOT NULL,
	negative INTEGER NOT NULL,
	alpha REAL NOT NULL,
	min_alpha REAL NOT NULL,
	seed INTEGER NOT NULL,
	docs INTEGER NOT NULL,
	words INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS model_docs (
	model_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	label TEXT NOT NULL,
	vector BLOB NOT NULL,
	PRIMARY KEY(model_id, position),
	FOREIGN KEY(model_id) REFERENCES models(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS model_words (
	model_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	word TEXT NOT NULL,
	count INTEGER NOT NULL,
	output BLOB NOT NULL,
	PRIMARY KEY(model_id, position),
	FOREIGN KEY(model_id) REFERENCES models(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertDoc inserts or replaces a document's token sequence
func (s *sqliteStore) UpsertDoc(ctx context.Context, d store.Doc) error {
	if d.Label == "" {
		return fmt.Errorf("%w: doc label is required", internalerr.ErrInvalidInput)
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO docs (label, updated_at) VALUES (?, ?)
ON CONFLICT(label) DO UPDATE SET updated_at=excluded.updated_at;
`, d.Label, d.UpdatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	if err := replaceDocTokens(ctx, tx, d.Label, d.Tokens); err != nil {
		return err
	}

	return tx.Commit()
}

func replaceDocTokens(ctx context.Context, tx *sql.Tx, label string, tokens []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_tokens WHERE label=?`, label); err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO doc_tokens (label, position, token) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	pos := 0
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, label, pos, tok); err != nil {
			return err
		}
		pos++
	}
	return nil
}

// GetDoc retrieves a document by label
func (s *sqliteStore) GetDoc(ctx context.Context, label string) (store.Doc, bool, error) {
	var updated string
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM docs WHERE label = ?`, label).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Doc{}, false, nil
	}
	if err != nil {
		return store.Doc{}, false, err
	}

	doc, err := s.loadDoc(ctx, label, updated)
	if err != nil {
		return store.Doc{}, false, err
	}
	return doc, true, nil
}

// ListDocs returns every stored document ordered by label
func (s *sqliteStore) ListDocs(ctx context.Context) ([]store.Doc, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT label, updated_at FROM docs ORDER BY label`)
	if err != nil {
		return nil, err
	}
	type row struct{ label, updated string }
	var heads []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.label, &r.updated); err != nil {
			rows.Close()
			return nil, err
		}
		heads = append(heads, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	docs := make([]store.Doc, 0, len(heads))
	for _, h := range heads {
		doc, err := s.loadDoc(ctx, h.label, h.updated)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *sqliteStore) loadDoc(ctx context.Context, label, updated string) (store.Doc, error) {
	doc := store.Doc{Label: label}
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		doc.UpdatedAt = t
	}

	rows, err := s.db.QueryContext(ctx, `SELECT token FROM doc_tokens WHERE label = ? ORDER BY position`, label)
	if err != nil {
		return store.Doc{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			return store.Doc{}, err
		}
		doc.Tokens = append(doc.Tokens, tok)
	}
	return doc, rows.Err()
}

// SaveModel stores a model and all of its weights in one transaction
func (s *sqliteStore) SaveModel(ctx context.Context, m store.Model) error {
	if m.Info.ID == "" {
		return fmt.Errorf("%w: model id is required", internalerr.ErrInvalidInput)
	}
	if len(m.Labels) != len(m.DocVectors) || len(m.Words) != len(m.Counts) || len(m.Words) != len(m.Output) {
		return fmt.Errorf("%w: model %s has mismatched parts", internalerr.ErrInvalidInput, m.Info.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	info := m.Info
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO models (id, created_at, vector_size, min_count, epochs, negative, alpha, min_alpha, seed, docs, words)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
		info.ID,
		info.CreatedAt.UTC().Format(time.RFC3339Nano),
		info.VectorSize,
		info.MinCount,
		info.Epochs,
		info.Negative,
		info.Alpha,
		info.MinAlpha,
		int64(info.Seed),
		len(m.Labels),
		len(m.Words),
	); err != nil {
		return err
	}

	docStmt, err := tx.PrepareContext(ctx, `INSERT INTO model_docs (model_id, position, label, vector) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer docStmt.Close()
	for i, label := range m.Labels {
		if _, err := docStmt.ExecContext(ctx, info.ID, i, label, encodeVector(m.DocVectors[i])); err != nil {
			return err
		}
	}

	wordStmt, err := tx.PrepareContext(ctx, `INSERT INTO model_words (model_id, position, word, count, output) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer wordStmt.Close()
	for i, w := range m.Words {
		if _, err := wordStmt.ExecContext(ctx, info.ID, i, w, m.Counts[i], encodeVector(m.Output[i])); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const modelInfoColumns = `id, created_at, vector_size, min_count, epochs, negative, alpha, min_alpha, seed, docs, words`

type scanner interface {
	Scan(dest ...any) error
}

func scanModelInfo(row scanner) (store.ModelInfo, error) {
	var (
		info    store.ModelInfo
		created string
		seed    int64
	)
	if err := row.Scan(
		&info.ID,
		&created,
		&info.VectorSize,
		&info.MinCount,
		&info.Epochs,
		&info.Negative,
		&info.Alpha,
		&info.MinAlpha,
		&seed,
		&info.Docs,
		&info.Words,
	); err != nil {
		return store.ModelInfo{}, err
	}
	info.Seed = uint64(seed)
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		info.CreatedAt = t
	}
	return info, nil
}

// LoadModel loads a model by id
func (s *sqliteStore) LoadModel(ctx context.Context, id string) (store.Model, error) {
	info, err := scanModelInfo(s.db.QueryRowContext(ctx, `SELECT `+modelInfoColumns+` FROM models WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return store.Model{}, fmt.Errorf("model %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Model{}, err
	}
	return s.loadWeights(ctx, info)
}

// LatestModel loads the most recently created model. ULIDs sort by time, so
// the greatest id wins.
func (s *sqliteStore) LatestModel(ctx context.Context) (store.Model, bool, error) {
	info, err := scanModelInfo(s.db.QueryRowContext(ctx, `SELECT `+modelInfoColumns+` FROM models ORDER BY id DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return store.Model{}, false, nil
	}
	if err != nil {
		return store.Model{}, false, err
	}
	m, err := s.loadWeights(ctx, info)
	if err != nil {
		return store.Model{}, false, err
	}
	return m, true, nil
}

// ListModels returns stored model descriptions, newest first
func (s *sqliteStore) ListModels(ctx context.Context) ([]store.ModelInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+modelInfoColumns+` FROM models ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []store.ModelInfo
	for rows.Next() {
		info, err := scanModelInfo(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *sqliteStore) loadWeights(ctx context.Context, info store.ModelInfo) (store.Model, error) {
	m := store.Model{Info: info}

	docRows, err := s.db.QueryContext(ctx, `SELECT label, vector FROM model_docs WHERE model_id = ? ORDER BY position`, info.ID)
	if err != nil {
		return store.Model{}, err
	}
	for docRows.Next() {
		var (
			label string
			blob  []byte
		)
		if err := docRows.Scan(&label, &blob); err != nil {
			docRows.Close()
			return store.Model{}, err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			docRows.Close()
			return store.Model{}, fmt.Errorf("model %s doc %s: %w", info.ID, label, err)
		}
		m.Labels = append(m.Labels, label)
		m.DocVectors = append(m.DocVectors, vec)
	}
	if err := docRows.Err(); err != nil {
		docRows.Close()
		return store.Model{}, err
	}
	docRows.Close()

	wordRows, err := s.db.QueryContext(ctx, `SELECT word, count, output FROM model_words WHERE model_id = ? ORDER BY position`, info.ID)
	if err != nil {
		return store.Model{}, err
	}
	defer wordRows.Close()
	for wordRows.Next() {
		var (
			word  string
			count int64
			blob  []byte
		)
		if err := wordRows.Scan(&word, &count, &blob); err != nil {
			return store.Model{}, err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return store.Model{}, fmt.Errorf("model %s word %s: %w", info.ID, word, err)
		}
		m.Words = append(m.Words, word)
		m.Counts = append(m.Counts, count)
		m.Output = append(m.Output, vec)
	}
	return m, wordRows.Err()
}
