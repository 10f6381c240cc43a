// Package pipeline assembles the extraction stages from a PipelineConfig and
// runs the stateless part of ingestion for one conversation.
//
// Stages run in a fixed order: normalize, extract, score, collapse
// duplicates within the conversation, classify, post-process. Deduplication
// against other conversations and the store happens at commit time in the
// ingest service.
package pipeline

import (
	"context"
	"fmt"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/index"
	"github.com/custodia-labs/qamine/internal/logger"
	"github.com/custodia-labs/qamine/internal/pipeline/classifier"
	"github.com/custodia-labs/qamine/internal/pipeline/dedup"
	"github.com/custodia-labs/qamine/internal/pipeline/extractor"
	"github.com/custodia-labs/qamine/internal/pipeline/normalizer"
	"github.com/custodia-labs/qamine/internal/pipeline/scorer"
	"github.com/custodia-labs/qamine/internal/postprocessors"
	"github.com/custodia-labs/qamine/internal/synonyms"
	"github.com/custodia-labs/qamine/internal/tokenizer"
)

// Components holds one immutable set of stages. It is safe for concurrent use.
type Components struct {
	Config         domain.PipelineConfig
	Tokenizer      *tokenizer.Tokenizer
	Synonyms       *synonyms.Expander
	Vocabulary     *classifier.Vocabulary
	Normalizer     *normalizer.Normalizer
	Extractor      *extractor.Extractor
	Scorer         *scorer.Scorer
	Classifier     *classifier.Classifier
	Index          *index.Builder
	PostProcessors *postprocessors.Pipeline
}

// Outcome is the result of processing one conversation.
type Outcome struct {
	// Pairs are classified and post-processed, unique by fingerprint.
	Pairs []domain.ClassifiedPair

	Candidates int
	Rejected   int
	Duplicates int
	Fallbacks  int
}

// Build loads dictionaries and constructs every stage.
func Build(cfg domain.PipelineConfig) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	exp, err := synonyms.FromConfig(cfg.Synonyms)
	if err != nil {
		return nil, fmt.Errorf("load synonyms: %w", err)
	}
	vocab, err := classifier.VocabularyFromConfig(cfg.Classification)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	// Synonyms and vocabulary terms must segment as whole words.
	dict := tokenizer.NewDictionary(tokenizer.DefaultStopWords(), tokenizer.DefaultWords(), exp.Words(), vocab.Words())
	tok := tokenizer.New(dict)

	cls, err := classifier.New(cfg.Classification, vocab, tok, exp)
	if err != nil {
		return nil, err
	}

	reg := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(reg, tok)
	post, err := reg.BuildPipeline(cfg.Processors)
	if err != nil {
		return nil, fmt.Errorf("build post-processors: %w", err)
	}

	return &Components{
		Config:         cfg,
		Tokenizer:      tok,
		Synonyms:       exp,
		Vocabulary:     vocab,
		Normalizer:     normalizer.New(),
		Extractor:      extractor.New(cfg.Extraction),
		Scorer:         scorer.New(cfg.Scoring),
		Classifier:     cls,
		Index:          index.NewBuilder(tok, exp, cfg.Index),
		PostProcessors: post,
	}, nil
}

// Process validates and runs one conversation through the stateless stages.
// A panic inside a stage is returned as domain.ErrStagePanic.
func (c *Components) Process(ctx context.Context, conv domain.Conversation) (out *Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("conversation %s: %v: %w", conv.ID, r, domain.ErrStagePanic)
		}
	}()

	if err := conv.Validate(); err != nil {
		return nil, err
	}
	log := logger.WithFields(map[string]any{"conversation": conv.ID, "messages": len(conv.Messages)})

	msgs := c.Normalizer.Normalize(conv.Messages)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := c.Extractor.Extract(conv.ID, msgs)
	out = &Outcome{Candidates: len(candidates)}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scored := make([]domain.ScoredPair, 0, len(candidates))
	for _, cand := range candidates {
		if sp, ok := c.Scorer.Score(cand); ok {
			scored = append(scored, sp)
		} else {
			out.Rejected++
		}
	}

	unique, dropped := dedup.Collapse(scored)
	out.Duplicates = dropped

	pairs := make([]domain.ClassifiedPair, 0, len(unique))
	for _, sp := range unique {
		cp := c.Classifier.Classify(sp)
		cp.SourceFile = conv.SourceFile
		if cp.Fallback {
			out.Fallbacks++
		}
		pairs = append(pairs, cp)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pairs, err = c.PostProcessors.Process(ctx, pairs)
	if err != nil {
		return nil, fmt.Errorf("post-process %s: %w", conv.ID, err)
	}
	out.Pairs = pairs

	log.WithField("stage", "process").Debugf("candidates=%d rejected=%d duplicates=%d kept=%d",
		out.Candidates, out.Rejected, out.Duplicates, len(out.Pairs))
	return out, nil
}

// Reclassify re-runs classification on persisted pairs with the current
// vocabulary. IDs, fingerprints and timestamps are kept.
func (c *Components) Reclassify(pairs []domain.ClassifiedPair) []domain.ClassifiedPair {
	out := make([]domain.ClassifiedPair, len(pairs))
	for i, p := range pairs {
		cp := c.Classifier.Classify(p.ScoredPair)
		cp.ID = p.ID
		cp.SourceFile = p.SourceFile
		cp.CreatedAt = p.CreatedAt
		cp.Keywords = p.Keywords
		out[i] = cp
	}
	return out
}
