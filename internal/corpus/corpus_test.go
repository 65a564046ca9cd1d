package corpus

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankfuse/rankfuse/internal/errors"
)

func TestNew_AssignsSequentialIDs(t *testing.T) {
	c, err := New([]Passage{
		{Content: "first"},
		{Content: "second", ID: 99}, // caller-supplied IDs are overwritten
		{Content: "third"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	for i := 0; i < c.Len(); i++ {
		assert.Equal(t, i, c.Passage(i).ID)
	}
	assert.Equal(t, "second", c.Passage(1).Content)
}

func TestNew_EmptyCorpusFails(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCorpusEmpty, errors.GetCode(err))
	assert.True(t, errors.IsFatal(err))
}

func TestCorpus_IsFrozen(t *testing.T) {
	// Given: a corpus built from a caller-owned slice
	src := []Passage{{Content: "a"}, {Content: "b"}}
	c, err := New(src)
	require.NoError(t, err)

	// When: the caller mutates its slice and the Passages() copy
	src[0].Content = "mutated"
	got := c.Passages()
	got[1].Content = "also mutated"

	// Then: the corpus is unaffected
	assert.Equal(t, "a", c.Passage(0).Content)
	assert.Equal(t, "b", c.Passage(1).Content)
}

func TestValidate_RejectsOutOfRangeIDs(t *testing.T) {
	c, err := FromContents([]string{"a", "b"})
	require.NoError(t, err)

	assert.NoError(t, c.Validate(0))
	assert.NoError(t, c.Validate(1))

	err = c.Validate(2)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAlignmentFailure, errors.GetCode(err))

	assert.Error(t, c.Validate(-1))
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.yaml")
	data := `passages:
  - content: "the quick brown fox"
    metadata:
      source: fables.txt
      page: "1"
  - content: "jumps over the lazy dog"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := LoadYAML(path)
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())
	assert.Equal(t, "the quick brown fox", c.Passage(0).Content)
	assert.Equal(t, "fables.txt", c.Passage(0).Metadata["source"])
	assert.Nil(t, c.Passage(1).Metadata)
}

func TestLoadYAML_MissingFile(t *testing.T) {
	_, err := LoadYAML(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestLoadYAML_EmptyCorpusFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("passages: []\n"), 0o644))

	_, err := LoadYAML(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCorpusEmpty, errors.GetCode(err))
}

func TestLoadSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "corpus.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `CREATE TABLE passages (content TEXT NOT NULL, metadata TEXT)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`INSERT INTO passages (content, metadata) VALUES
		 ('alpha passage', '{"source":"a.md"}'),
		 ('beta passage', NULL)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	c, err := LoadSQLite(ctx, path, "passages")
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())
	assert.Equal(t, "alpha passage", c.Passage(0).Content)
	assert.Equal(t, "a.md", c.Passage(0).Metadata["source"])
	assert.Equal(t, 1, c.Passage(1).ID)
	assert.Nil(t, c.Passage(1).Metadata)
}

func TestLoadSQLite_NoMetadataColumn(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "plain.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `CREATE TABLE chunks (content TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO chunks (content) VALUES ('only text')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	c, err := LoadSQLite(ctx, path, "chunks")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "only text", c.Passage(0).Content)
}
