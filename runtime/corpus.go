package runtime

import (
	"log/slog"

	"github.com/samber/lo"

	"groupguard/errors"
	"groupguard/repositories"
)

// defaultCorpusEntry keeps the corpus non-empty when the store is absent or
// holds nothing, so a random pick is always possible.
const defaultCorpusEntry = "No messages configured yet."

// Corpus is the in-memory view of the message templates, 1-indexed for all
// user-facing addressing. Mutations persist immediately; a persist failure
// is logged and the in-memory list stays authoritative.
type Corpus struct {
	log     *slog.Logger
	repo    repositories.ICorpusRepository
	entries []string

	// placeholder marks that entries holds the display substitute for an
	// empty store, which must never leak into the durable list.
	placeholder bool
}

func NewCorpus(log *slog.Logger, repo repositories.ICorpusRepository) *Corpus {
	return &Corpus{log: log, repo: repo}
}

// Load replaces the in-memory list with the durable content, substituting a
// single placeholder entry when the store is absent or empty. A read error
// is logged and leaves the current list untouched.
func (c *Corpus) Load() error {
	entries, err := c.repo.Load()
	if err != nil {
		c.log.Error("corpus reload failed, keeping current entries", "err", err)
		return err
	}
	c.placeholder = len(entries) == 0
	if c.placeholder {
		entries = []string{defaultCorpusEntry}
	}
	c.entries = entries
	return nil
}

// Append adds the text in memory and appends it to the durable list. The
// first real entry displaces the placeholder.
func (c *Corpus) Append(text string) {
	if c.placeholder {
		c.entries = nil
		c.placeholder = false
	}
	c.entries = append(c.entries, text)
	if err := c.repo.Append(text); err != nil {
		c.log.Error("corpus append failed, in-memory entries kept", "err", err)
	}
}

// RemoveAt deletes the entry at a 1-based index and returns it.
func (c *Corpus) RemoveAt(index int) (string, error) {
	if index < 1 || index > len(c.entries) {
		return "", errors.ErrIndexOutOfRange
	}
	removed := c.entries[index-1]
	c.entries = append(c.entries[:index-1], c.entries[index:]...)
	c.persist()
	return removed, nil
}

// Entries returns a copy of the current list in corpus order.
func (c *Corpus) Entries() []string {
	out := make([]string, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Corpus) Len() int {
	return len(c.entries)
}

// Random picks one entry uniformly. The zero string only comes back when the
// corpus is empty, which Load prevents.
func (c *Corpus) Random() string {
	return lo.Sample(c.entries)
}

func (c *Corpus) persist() {
	if err := c.repo.Save(c.entries); err != nil {
		c.log.Error("corpus persist failed, in-memory entries kept", "err", err)
	}
}
