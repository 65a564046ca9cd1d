// Package corpus defines the frozen passage corpus a retrieval session
// operates over. A corpus is built once when a session is opened and is
// read-only thereafter; the passage's index position is the canonical
// identity used to align scores across scorers.
package corpus

import (
	"fmt"

	"github.com/rankfuse/rankfuse/internal/errors"
)

// Passage is a single retrievable unit of text.
type Passage struct {
	// ID is the passage's stable index into the corpus (0-based).
	ID int

	// Content is the passage text.
	Content string

	// Metadata carries source attribution (e.g. file, page).
	Metadata map[string]string
}

// Corpus is an ordered, immutable sequence of passages.
type Corpus struct {
	passages []Passage
}

// New creates a corpus from the given passages, assigning each its index
// as ID. Returns ERR_402_CORPUS_EMPTY if no passages are supplied:
// scoring against an empty corpus is ill-defined.
func New(passages []Passage) (*Corpus, error) {
	if len(passages) == 0 {
		return nil, errors.CorpusEmpty()
	}

	frozen := make([]Passage, len(passages))
	copy(frozen, passages)
	for i := range frozen {
		frozen[i].ID = i
	}

	return &Corpus{passages: frozen}, nil
}

// FromContents is a convenience constructor for plain text passages.
func FromContents(contents []string) (*Corpus, error) {
	passages := make([]Passage, len(contents))
	for i, c := range contents {
		passages[i] = Passage{Content: c}
	}
	return New(passages)
}

// Len returns the number of passages.
func (c *Corpus) Len() int {
	return len(c.passages)
}

// Passage returns the passage at index i.
// Panics if i is out of range, like a slice access.
func (c *Corpus) Passage(i int) Passage {
	return c.passages[i]
}

// Passages returns a copy of the passage sequence.
func (c *Corpus) Passages() []Passage {
	out := make([]Passage, len(c.passages))
	copy(out, c.passages)
	return out
}

// Contents returns the passage texts in corpus order.
func (c *Corpus) Contents() []string {
	out := make([]string, len(c.passages))
	for i, p := range c.passages {
		out[i] = p.Content
	}
	return out
}

// Validate checks that an index is a valid passage identity.
func (c *Corpus) Validate(i int) error {
	if i < 0 || i >= len(c.passages) {
		return errors.AlignmentFailure(
			fmt.Sprintf("passage id %d outside corpus of %d passages", i, len(c.passages)))
	}
	return nil
}
