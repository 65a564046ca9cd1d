package corpus

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rankfuse/rankfuse/internal/errors"
)

// yamlPassage is the on-disk passage representation.
type yamlPassage struct {
	Content  string            `yaml:"content"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// yamlCorpus is the on-disk corpus file format.
type yamlCorpus struct {
	Passages []yamlPassage `yaml:"passages"`
}

// LoadYAML reads a corpus from a YAML file of the form:
//
//	passages:
//	  - content: "..."
//	    metadata: {source: "doc.pdf", page: "3"}
//
// Passage IDs are assigned by file order.
func LoadYAML(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, fmt.Errorf("read corpus file: %w", err))
	}

	var file yamlCorpus
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, fmt.Errorf("parse corpus file %s: %w", path, err))
	}

	passages := make([]Passage, len(file.Passages))
	for i, p := range file.Passages {
		passages[i] = Passage{
			Content:  p.Content,
			Metadata: p.Metadata,
		}
	}

	return New(passages)
}
