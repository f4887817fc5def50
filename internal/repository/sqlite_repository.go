package repository

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	"kbase/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

// ReplaceDocument uses a transaction so a document is never visible without its chunks.
func (r *sqliteRepository) ReplaceDocument(ctx context.Context, doc *model.Document, chunks []model.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	// Ensure transaction is rolled back on error
	defer func() { _ = tx.Rollback() }()

	// Chunks of the replaced document go with it through ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE name = ?", doc.Name); err != nil {
		return fmt.Errorf("could not remove previous document: %w", err)
	}

	insertDocQuery := `
		INSERT INTO documents (id, name, content_type, size_bytes, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, insertDocQuery,
		doc.ID,
		doc.Name,
		doc.ContentType,
		doc.SizeBytes,
		doc.Checksum,
		doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("could not insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO chunks (id, document_id, position, content, embedding) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("could not prepare chunk insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, doc.ID, c.Position, c.Content, encodeEmbedding(c.Embedding)); err != nil {
			return fmt.Errorf("could not insert chunk %d: %w", c.Position, err)
		}
	}

	return tx.Commit()
}

func (r *sqliteRepository) ListDocuments(ctx context.Context) ([]*model.Document, error) {
	query := `
		SELECT d.id, d.name, d.content_type, d.size_bytes, d.checksum, d.created_at,
			(SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)
		FROM documents d
		ORDER BY d.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := []*model.Document{}
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.ContentType, &doc.SizeBytes, &doc.Checksum, &doc.CreatedAt, &doc.ChunkCount); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

func (r *sqliteRepository) DeleteDocument(ctx context.Context, documentID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteRepository) ListChunks(ctx context.Context) ([]model.ScoredChunk, error) {
	query := `
		SELECT c.id, c.document_id, c.position, c.content, c.embedding, d.name
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		ORDER BY d.name ASC, c.position ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chunks []model.ScoredChunk
	for rows.Next() {
		var sc model.ScoredChunk
		var embedding []byte
		if err := rows.Scan(&sc.ID, &sc.DocumentID, &sc.Position, &sc.Content, &embedding, &sc.DocumentName); err != nil {
			return nil, err
		}
		sc.Embedding, err = decodeEmbedding(embedding)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", sc.ID, err)
		}
		chunks = append(chunks, sc)
	}
	return chunks, rows.Err()
}

// encodeEmbedding packs a vector as little-endian float32 values.
func encodeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("corrupt embedding of %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
