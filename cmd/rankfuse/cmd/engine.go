package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/rankfuse/rankfuse/internal/config"
	"github.com/rankfuse/rankfuse/internal/corpus"
	"github.com/rankfuse/rankfuse/internal/embed"
	"github.com/rankfuse/rankfuse/internal/errors"
	"github.com/rankfuse/rankfuse/internal/retrieval"
	"github.com/rankfuse/rankfuse/internal/store"
)

// loadCorpus reads the corpus file, dispatching on extension.
func loadCorpus(ctx context.Context, opts *rootOptions) (*corpus.Corpus, error) {
	if opts.corpusPath == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "--corpus is required", nil)
	}

	switch strings.ToLower(filepath.Ext(opts.corpusPath)) {
	case ".yaml", ".yml":
		return corpus.LoadYAML(opts.corpusPath)
	case ".db", ".sqlite", ".sqlite3":
		return corpus.LoadSQLite(ctx, opts.corpusPath, opts.table)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("unsupported corpus format: %s", opts.corpusPath), nil)
	}
}

// openSession assembles the full retrieval stack from configuration:
// corpus, cached static embedder, HNSW store, relevance model, session.
func openSession(ctx context.Context, opts *rootOptions) (*retrieval.RetrievalSession, func(), error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	c, err := loadCorpus(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	embedder := embed.NewCachedEmbedder(embed.NewStaticEmbedder(), cfg.Embeddings.CacheSize)

	docStore, err := store.NewHNSWStore(ctx, c, embedder, slog.Default())
	if err != nil {
		embedder.Close()
		return nil, nil, err
	}

	var model retrieval.RelevanceModel
	if cfg.Rerank.Enabled {
		if cfg.Rerank.Endpoint != "" {
			model, err = retrieval.NewHTTPRelevanceModel(retrieval.HTTPRelevanceModelConfig{
				Endpoint: cfg.Rerank.Endpoint,
				Model:    cfg.Rerank.Model,
				Timeout:  cfg.Rerank.TimeoutDuration(),
			})
			if err != nil {
				embedder.Close()
				return nil, nil, err
			}
		} else {
			model = retrieval.TermOverlapModel{}
		}
	}

	session, err := retrieval.NewRetrievalSession(c, docStore, retrieval.SessionConfig{
		Fusion: retrieval.FusionConfig{
			Alpha: cfg.Search.Alpha,
			K:     cfg.Search.RRFConstant,
			TopK:  cfg.Search.TopK,
		},
		Rerank: retrieval.RerankConfig{
			Enabled:   cfg.Rerank.Enabled,
			FinalTopK: cfg.Rerank.FinalTopK,
			OnError:   retrieval.OnRerankError(onErrorPolicy(cfg)),
		},
		Model: model,
	})
	if err != nil {
		embedder.Close()
		return nil, nil, err
	}

	cleanup := func() { _ = embedder.Close() }
	return session, cleanup, nil
}

func onErrorPolicy(cfg *config.Config) string {
	if cfg.Rerank.OnError == "" {
		return string(retrieval.OnRerankErrorFail)
	}
	return cfg.Rerank.OnError
}
