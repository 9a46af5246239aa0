package repositories

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorpusRepository_Load_Missing_File_Is_Empty(t *testing.T) {
	req := require.New(t)
	repo := NewCorpusRepository(filepath.Join(t.TempDir(), "messages.txt"))

	entries, err := repo.Load()
	req.NoError(err)
	req.Empty(entries)
}

func TestCorpusRepository_Save_Load_Roundtrip(t *testing.T) {
	req := require.New(t)
	repo := NewCorpusRepository(filepath.Join(t.TempDir(), "messages.txt"))

	req.NoError(repo.Save([]string{"Ping!", "Hello there"}))

	entries, err := repo.Load()
	req.NoError(err)
	req.Equal([]string{"Ping!", "Hello there"}, entries)
}

func TestCorpusRepository_Load_Trims_And_Skips_Blank_Lines(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "messages.txt")
	req.NoError(os.WriteFile(path, []byte("  one  \n\n\ntwo\n   \n"), 0o644))

	entries, err := NewCorpusRepository(path).Load()
	req.NoError(err)
	req.Equal([]string{"one", "two"}, entries)
}

func TestCorpusRepository_Append_Creates_And_Extends(t *testing.T) {
	req := require.New(t)
	repo := NewCorpusRepository(filepath.Join(t.TempDir(), "messages.txt"))

	req.NoError(repo.Append("one"))
	req.NoError(repo.Append("two"))

	entries, err := repo.Load()
	req.NoError(err)
	req.Equal([]string{"one", "two"}, entries)
}
