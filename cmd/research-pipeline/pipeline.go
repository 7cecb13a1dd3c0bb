// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/research-pipeline/internal/authority"
	"github.com/pdiddy/research-pipeline/internal/knowledge"
	"github.com/pdiddy/research-pipeline/internal/orchestrator"
	"github.com/pdiddy/research-pipeline/internal/search"
	"github.com/pdiddy/research-pipeline/internal/synth"
	"github.com/pdiddy/research-pipeline/pkg/types"
)

// pipeline is a wired orchestrator plus the resources it holds open.
type pipeline struct {
	orch    *orchestrator.Orchestrator
	closers []io.Closer
}

func (p *pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newScorer returns the built-in scorer or one over the configured table.
func newScorer(cfg types.AuthorityConfig) (*authority.Scorer, error) {
	if cfg.TableFile == "" {
		return authority.Default(), nil
	}
	table, err := authority.LoadTable(cfg.TableFile)
	if err != nil {
		return nil, err
	}
	return authority.New(table)
}

// buildPipeline wires every component from cfg. withKnowledge forces the
// knowledge base enricher on even when the configuration leaves it off.
func buildPipeline(ctx context.Context, cfg types.PipelineConfig, withKnowledge bool, progress io.Writer, logger *zap.Logger) (*pipeline, error) {
	p := &pipeline{}

	scorer, err := newScorer(cfg.Authority)
	if err != nil {
		return nil, err
	}

	stack, err := search.Build(cfg.Search, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, stack)
	client := search.NewClient(stack.Provider,
		search.WithLogger(logger),
		search.WithDefaultTimeout(cfg.Search.CallTimeout),
	)

	gen, err := synth.NewGenerator(ctx, cfg.Synthesis, &http.Client{Timeout: cfg.Synthesis.Timeout})
	if err != nil {
		p.Close()
		return nil, err
	}
	synthesizer := synth.New(gen,
		synth.WithTimeout(cfg.Synthesis.Timeout),
		synth.WithMaxSources(cfg.Synthesis.MaxSourcesInPrompt),
		synth.WithLogger(logger),
	)

	opts := []orchestrator.Option{
		orchestrator.WithScorer(scorer),
		orchestrator.WithSynthesizer(synthesizer),
		orchestrator.WithCallTimeout(cfg.Search.CallTimeout),
		orchestrator.WithLogger(logger),
		orchestrator.WithProgress(progress),
	}

	if cfg.KnowledgeBase.Enabled || withKnowledge {
		store, err := knowledge.NewStore(cfg.KnowledgeBase, logger)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("opening knowledge base: %w", err)
		}
		p.closers = append(p.closers, store)
		opts = append(opts,
			orchestrator.WithEnricher(store),
			orchestrator.WithEnrichTimeout(cfg.KnowledgeBase.Timeout),
		)
	}

	logger.Debug("pipeline ready",
		zap.String("provider", client.Provider()),
		zap.String("generator", synthesizer.Generator()),
		zap.Bool("knowledge", cfg.KnowledgeBase.Enabled || withKnowledge),
	)
	p.orch = orchestrator.New(client, opts...)
	return p, nil
}
