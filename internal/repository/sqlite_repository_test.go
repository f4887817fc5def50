package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbase/internal/database"
	"kbase/internal/model"
	"kbase/internal/repository"
)

// setupRepository opens a real, migrated SQLite file in a temp dir. The chunk
// embeddings round-trip through the BLOB column, which sqlmock cannot exercise.
func setupRepository(t *testing.T) repository.Repository {
	db, err := database.InitDB(filepath.Join(t.TempDir(), "kbase.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewSQLiteRepository(db)
}

func newDocument(id, name string) *model.Document {
	return &model.Document{
		ID:          id,
		Name:        name,
		ContentType: "text/plain; charset=utf-8",
		SizeBytes:   42,
		Checksum:    "abc",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestSQLiteRepository_ReplaceDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - stores document and chunks", func(t *testing.T) {
		repo := setupRepository(t)

		chunks := []model.Chunk{
			{ID: "c1", Position: 0, Content: "first", Embedding: []float32{0.5, -1.25, 3}},
			{ID: "c2", Position: 1, Content: "second", Embedding: []float32{1, 0, 0}},
		}
		require.NoError(t, repo.ReplaceDocument(ctx, newDocument("d1", "a.txt"), chunks))

		docs, err := repo.ListDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "a.txt", docs[0].Name)
		assert.Equal(t, 2, docs[0].ChunkCount)

		stored, err := repo.ListChunks(ctx)
		require.NoError(t, err)
		require.Len(t, stored, 2)
		assert.Equal(t, "a.txt", stored[0].DocumentName)
		assert.Equal(t, "d1", stored[0].DocumentID)
		assert.Equal(t, []float32{0.5, -1.25, 3}, stored[0].Embedding)
		assert.Equal(t, "second", stored[1].Content)
	})

	t.Run("Success - same name replaces previous document", func(t *testing.T) {
		repo := setupRepository(t)

		require.NoError(t, repo.ReplaceDocument(ctx, newDocument("old", "a.txt"),
			[]model.Chunk{{ID: "c-old", Content: "old text", Embedding: []float32{1}}}))
		require.NoError(t, repo.ReplaceDocument(ctx, newDocument("new", "a.txt"),
			[]model.Chunk{{ID: "c-new", Content: "new text", Embedding: []float32{1}}}))

		docs, err := repo.ListDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "new", docs[0].ID)

		stored, err := repo.ListChunks(ctx)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "new text", stored[0].Content)
	})

	t.Run("Failure - rolls back when a chunk insert fails", func(t *testing.T) {
		db, mockDB, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		repo := repository.NewSQLiteRepository(db)

		mockDB.ExpectBegin()
		mockDB.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE name = ?")).
			WithArgs("a.txt").WillReturnResult(sqlmock.NewResult(0, 0))
		mockDB.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(1, 1))
		prep := mockDB.ExpectPrepare("INSERT INTO chunks")
		prep.ExpectExec().WillReturnError(errors.New("disk full"))
		mockDB.ExpectRollback()

		err = repo.ReplaceDocument(ctx, newDocument("d1", "a.txt"),
			[]model.Chunk{{ID: "c1", Content: "x", Embedding: []float32{1}}})
		require.Error(t, err)
		assert.ErrorContains(t, err, "disk full")
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestSQLiteRepository_DeleteDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - cascades to chunks", func(t *testing.T) {
		repo := setupRepository(t)
		require.NoError(t, repo.ReplaceDocument(ctx, newDocument("d1", "a.txt"),
			[]model.Chunk{{ID: "c1", Content: "x", Embedding: []float32{1}}}))

		require.NoError(t, repo.DeleteDocument(ctx, "d1"))

		stored, err := repo.ListChunks(ctx)
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("Failure - unknown id", func(t *testing.T) {
		repo := setupRepository(t)
		err := repo.DeleteDocument(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestSQLiteRepository_ListDocuments_Empty(t *testing.T) {
	repo := setupRepository(t)

	docs, err := repo.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}
