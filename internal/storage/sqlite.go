package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"rustex/internal/graph"
	"rustex/internal/knowledge"
	"rustex/internal/model"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	// "references" is a reserved word, hence the trailing underscore.
	queries := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			hash TEXT,
			lines INTEGER,
			element_count INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS elements (
			id TEXT PRIMARY KEY,
			name TEXT,
			element_type TEXT,
			file TEXT,
			start_line INTEGER,
			end_line INTEGER,
			module_path TEXT,
			qualified_name TEXT,
			data JSON
		);`,
		`CREATE TABLE IF NOT EXISTS references_ (
			from_id TEXT,
			to_id TEXT,
			reference_type TEXT,
			reference_text TEXT,
			is_resolved INTEGER,
			data JSON
		);`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			id TEXT PRIMARY KEY,
			content JSON,
			embedding BLOB
		);`,
		`CREATE INDEX IF NOT EXISTS idx_elements_file ON elements(file);`,
		`CREATE INDEX IF NOT EXISTS idx_elements_name ON elements(name);`,
		`CREATE INDEX IF NOT EXISTS idx_references_from ON references_(from_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- ProjectStore implementation ---

// SaveProject stores the project as a snapshot: previous analysis rows are
// dropped so the database always mirrors exactly one run. Embeddings are
// kept, they are keyed by element id and upserted separately.
func (s *SQLiteStore) SaveProject(ctx context.Context, p *graph.Project) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"files", "elements", "references_"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	metaStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`)
	if err != nil {
		return err
	}
	defer metaStmt.Close()
	for key, value := range map[string]string{
		"name":    p.Name,
		"root":    p.Root,
		"edition": p.Edition,
	} {
		if _, err := metaStmt.Exec(key, value); err != nil {
			return err
		}
	}

	fileStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files (path, hash, lines, element_count) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer fileStmt.Close()
	for _, f := range p.Files {
		if _, err := fileStmt.Exec(f.Path, f.Hash, f.Lines, f.ElementCount); err != nil {
			return err
		}
	}

	elemStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO elements (id, name, element_type, file, start_line, end_line, module_path, qualified_name, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer elemStmt.Close()
	for _, e := range p.Elements {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode element %s: %w", e.ID, err)
		}
		if _, err := elemStmt.Exec(e.ID, e.Name, string(e.ElementType), e.Location.File,
			e.Location.StartLine, e.Location.EndLine,
			e.Hierarchy.ModulePath, e.Hierarchy.QualifiedName, data); err != nil {
			return err
		}
	}

	refStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO references_ (from_id, to_id, reference_type, reference_text, is_resolved, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer refStmt.Close()
	for _, r := range p.References {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		var toID any
		if r.ToElementID != nil {
			toID = *r.ToElementID
		}
		if _, err := refStmt.Exec(r.FromElementID, toID, string(r.ReferenceType),
			r.ReferenceText, r.IsResolved, data); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadProject(ctx context.Context) (*graph.Project, error) {
	meta, err := s.loadMeta(ctx)
	if err != nil {
		return nil, err
	}
	p := graph.NewProject(meta["name"], meta["root"])
	p.Edition = meta["edition"]

	rows, err := s.db.QueryContext(ctx, "SELECT path, hash, lines, element_count FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f graph.FileRecord
		if err := rows.Scan(&f.Path, &f.Hash, &f.Lines, &f.ElementCount); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		p.Files = append(p.Files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// rowid order preserves extraction order
	elemRows, err := s.db.QueryContext(ctx, "SELECT data FROM elements ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}
	defer elemRows.Close()
	for elemRows.Next() {
		var data []byte
		if err := elemRows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan element: %w", err)
		}
		var e model.CodeElement
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to decode element: %w", err)
		}
		p.Elements = append(p.Elements, &e)
	}
	if err := elemRows.Err(); err != nil {
		return nil, err
	}

	refRows, err := s.db.QueryContext(ctx, "SELECT data FROM references_ ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query references: %w", err)
	}
	defer refRows.Close()
	for refRows.Next() {
		var data []byte
		if err := refRows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan reference: %w", err)
		}
		var r model.CrossReference
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to decode reference: %w", err)
		}
		p.References = append(p.References, r)
	}
	if err := refRows.Err(); err != nil {
		return nil, err
	}

	p.Reindex()
	return p, nil
}

func (s *SQLiteStore) loadMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("failed to query meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		meta[key] = value
	}
	return meta, rows.Err()
}

func (s *SQLiteStore) GetElement(ctx context.Context, id string) (*model.CodeElement, error) {
	row := s.db.QueryRowContext(ctx, "SELECT data FROM elements WHERE id = ?", id)

	var data []byte
	if err := row.Scan(&data); err != nil {
		return nil, err
	}
	var e model.CodeElement
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode element: %w", err)
	}
	return &e, nil
}

func (s *SQLiteStore) ElementsInFile(ctx context.Context, path string) ([]*model.CodeElement, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT data FROM elements WHERE file = ? ORDER BY rowid", path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var elements []*model.CodeElement
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var e model.CodeElement
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to decode element: %w", err)
		}
		elements = append(elements, &e)
	}
	return elements, rows.Err()
}

// --- VectorStore implementation ---

func (s *SQLiteStore) SaveEmbeddings(ctx context.Context, items []knowledge.VectorItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (id, content, embedding) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content=excluded.content, embedding=excluded.embedding
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		content, err := json.Marshal(item.Chunk)
		if err != nil {
			return err
		}
		blob, err := encodeVector(item.Embedding)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(item.Chunk.ID, content, blob); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SearchSimilar scans every stored embedding and ranks by cosine
// similarity in memory. Fast enough for the crate sizes this tool
// targets; revisit if databases grow past a few hundred thousand chunks.
func (s *SQLiteStore) SearchSimilar(ctx context.Context, queryVector []float32, topK int) ([]knowledge.Chunk, error) {
	items, err := s.Search(ctx, queryVector, topK)
	if err != nil {
		return nil, err
	}
	chunks := make([]knowledge.Chunk, 0, len(items))
	for _, item := range items {
		chunks = append(chunks, item.Chunk)
	}
	return chunks, nil
}

// Add implements knowledge.Indexer.
func (s *SQLiteStore) Add(ctx context.Context, items []knowledge.VectorItem) error {
	return s.SaveEmbeddings(ctx, items)
}

// Search implements knowledge.Indexer.
func (s *SQLiteStore) Search(ctx context.Context, queryVector []float32, topK int) ([]knowledge.VectorItem, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT content, embedding FROM embeddings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type scored struct {
		item  knowledge.VectorItem
		score float32
	}
	var candidates []scored

	for rows.Next() {
		var content []byte
		var blob []byte
		if err := rows.Scan(&content, &blob); err != nil {
			return nil, err
		}

		var item knowledge.VectorItem
		if err := json.Unmarshal(content, &item.Chunk); err != nil {
			continue
		}
		vec, err := decodeVector(blob)
		if err != nil {
			continue
		}
		item.Embedding = vec

		candidates = append(candidates, scored{
			item:  item,
			score: knowledge.CosineSimilarity(queryVector, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}

	items := make([]knowledge.VectorItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, c.item)
	}
	return items, nil
}

// Delete removes stored embeddings by chunk id.
func (s *SQLiteStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM embeddings WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.Exec(id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func encodeVector(vec []float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeVector(blob []byte) ([]float32, error) {
	vec := make([]float32, len(blob)/4)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}
