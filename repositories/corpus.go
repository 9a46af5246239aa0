package repositories

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

type ICorpusRepository interface {
	// Load returns the stored entries in order. A missing file reads as an
	// empty corpus, not an error, so external deletion of the file is safe.
	Load() ([]string, error)
	// Append adds one entry to the end of the durable list.
	Append(entry string) error
	Save(entries []string) error
}

// CorpusRepository keeps the corpus as a plain newline-delimited text file,
// one trimmed non-empty line per entry. The format is deliberately editable
// by hand; external edits take effect on the next reload.
type CorpusRepository struct {
	path string
}

func NewCorpusRepository(path string) CorpusRepository {
	return CorpusRepository{path: path}
}

func (r CorpusRepository) Load() ([]string, error) {
	file, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer file.Close()

	var entries []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}
	return entries, nil
}

func (r CorpusRepository) Append(entry string) error {
	file, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(entry + "\n"); err != nil {
		return fmt.Errorf("failed to append to corpus file: %w", err)
	}
	return nil
}

func (r CorpusRepository) Save(entries []string) error {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(entry)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(r.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write corpus file: %w", err)
	}
	return nil
}
