// Package engine orchestrates a categorization run: batch tokenization,
// the vector-cache fast path, phonebook resolution, context rules, and
// the pending/resume flow for rows that need a human decision.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/quillfin/quill/internal/common"
	"github.com/quillfin/quill/internal/model"
	"github.com/quillfin/quill/internal/rules"
	"github.com/quillfin/quill/internal/service"
)

// Config holds the tuning knobs for a categorization run. BatchSize and
// Concurrency affect throughput only, never results.
type Config struct {
	Retry                 common.RetryOptions
	BatchSize             int
	Concurrency           int
	AutoAcceptSuggestions bool
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:   20,
		Concurrency: 4,
	}
}

// Deps are the collaborators a run needs. Embedder and Cache are optional
// as a pair; leaving either nil disables the fast path. Prompter is nil
// in deferred mode, where unresolved rows park in a session instead.
type Deps struct {
	Directory service.Directory
	Resolver  Resolver
	Tokenizer service.Tokenizer
	Embedder  service.Embedder
	Cache     VectorCache
	Rules     *rules.Matcher
	Sessions  service.SessionStore
	Results   service.ResultStore
	Prompter  Prompter
}

// Engine drives transactions through the categorization state machine.
type Engine struct {
	deps Deps
	cfg  Config
}

// New validates the required collaborators and builds an engine.
func New(deps Deps, cfg Config) (*Engine, error) {
	if deps.Directory == nil {
		return nil, fmt.Errorf("%w: directory is required", common.ErrInvalidConfig)
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("%w: resolver is required", common.ErrInvalidConfig)
	}
	if deps.Tokenizer == nil {
		return nil, fmt.Errorf("%w: tokenizer is required", common.ErrInvalidConfig)
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("%w: session store is required", common.ErrInvalidConfig)
	}
	if deps.Results == nil {
		return nil, fmt.Errorf("%w: result store is required", common.ErrInvalidConfig)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	return &Engine{deps: deps, cfg: cfg}, nil
}

// RunResult is the outcome of a run. Transactions holds terminal rows in
// input order; Pending holds rows awaiting a decision. SessionID is set
// when pending rows were parked in a durable session.
type RunResult struct {
	RunID        string
	SessionID    string
	Transactions []model.CategorizedTransaction
	Pending      []model.PendingResolution
}

// Run categorizes the given transactions. With a prompter attached every
// row reaches a terminal state before Run returns; without one, rows that
// need a decision are saved in a session keyed by the run id.
func (e *Engine) Run(ctx context.Context, txns []model.Transaction) (*RunResult, error) {
	runID := uuid.NewString()
	if len(txns) == 0 {
		return &RunResult{RunID: runID}, nil
	}

	slog.Info("starting categorization run",
		"run_id", runID,
		"transactions", len(txns),
		"batch_size", e.cfg.BatchSize)

	tokens := e.tokenize(ctx, txns)
	embeddings := e.embed(ctx, tokens)

	rows := make([]model.CategorizedTransaction, len(txns))
	var pending []model.PendingResolution
	var pendingRows []int

	for i, txn := range txns {
		var emb []float64
		if embeddings != nil {
			emb = embeddings[i]
		}
		row, pend := e.decide(ctx, txn, tokens[i], emb)
		rows[i] = row
		if pend != nil {
			pending = append(pending, *pend)
			pendingRows = append(pendingRows, i)
		}
	}

	if e.deps.Prompter != nil && len(pending) > 0 {
		var remaining []model.PendingResolution
		for j, p := range pending {
			i := pendingRows[j]

			// A decision earlier in the run may have registered this
			// merchant; exact hits settle without another prompt.
			if settled, ok := e.settleFromDirectory(rows[i], p); ok {
				rows[i] = settled
				continue
			}

			decision, err := e.deps.Prompter.ConfirmResolution(ctx, p)
			if err != nil {
				// Park the rest in a session instead of discarding the
				// decisions already made.
				common.LogError(err, "resolution prompt failed, deferring remaining rows", common.Fields{
					"run_id":    runID,
					"remaining": len(pending) - j,
				})
				remaining = append(remaining, pending[j:]...)
				break
			}

			var emb []float64
			if embeddings != nil {
				emb = embeddings[i]
			}
			rows[i] = e.applyDecision(ctx, rows[i], p, decision, emb)
		}
		pending = remaining
	}

	result := &RunResult{RunID: runID}
	for _, row := range rows {
		if row.State.Terminal() {
			result.Transactions = append(result.Transactions, row)
		}
	}
	result.Pending = pending

	if len(result.Transactions) > 0 {
		if err := e.deps.Results.SaveResults(ctx, runID, result.Transactions); err != nil {
			return nil, fmt.Errorf("failed to save run results: %w", err)
		}
	}

	if len(pending) > 0 {
		state := service.SessionState{
			SessionID: runID,
			Pending:   pending,
			Resolved:  result.Transactions,
		}
		if err := e.deps.Sessions.SaveSession(ctx, state); err != nil {
			return nil, fmt.Errorf("failed to save pending session: %w", err)
		}
		result.SessionID = runID
	}

	slog.Info("categorization run complete",
		"run_id", runID,
		"resolved", len(result.Transactions),
		"pending", len(pending))

	return result, nil
}

// tokenize cleans descriptions in fixed-size batches dispatched
// concurrently, reassembled positionally. Blank descriptions never reach
// the tokenizer, and a failed batch degrades to pass-through of the raw
// descriptions rather than failing the run.
func (e *Engine) tokenize(ctx context.Context, txns []model.Transaction) []string {
	tokens := make([]string, len(txns))

	var rowIdx []int
	var descriptions []string
	for i, txn := range txns {
		if strings.TrimSpace(txn.Description) == "" {
			continue
		}
		rowIdx = append(rowIdx, i)
		descriptions = append(descriptions, txn.Description)
	}
	if len(descriptions) == 0 {
		return tokens
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for start := 0; start < len(descriptions); start += e.cfg.BatchSize {
		start := start
		end := min(start+e.cfg.BatchSize, len(descriptions))
		g.Go(func() error {
			in := descriptions[start:end]
			var out []string
			err := common.WithRetry(gctx, func() error {
				var batchErr error
				out, batchErr = e.deps.Tokenizer.TokenizeBatch(gctx, in)
				return batchErr
			}, e.cfg.Retry)
			if err != nil || len(out) != len(in) {
				slog.Warn("tokenizer batch degraded to pass-through",
					"offset", start,
					"size", len(in),
					"error", err)
				for i, d := range in {
					tokens[rowIdx[start+i]] = strings.TrimSpace(d)
				}
				return nil
			}
			for i, token := range out {
				tokens[rowIdx[start+i]] = token
			}
			return nil
		})
	}

	// Batches never return errors; they degrade instead.
	_ = g.Wait()
	return tokens
}

// embed produces one vector per token for the fast path. Any failure
// disables the fast path for the run and is never fatal.
func (e *Engine) embed(ctx context.Context, tokens []string) [][]float64 {
	if e.deps.Embedder == nil || e.deps.Cache == nil {
		return nil
	}
	var vecs [][]float64
	err := common.WithRetry(ctx, func() error {
		var embedErr error
		vecs, embedErr = e.deps.Embedder.EmbedBatch(ctx, tokens)
		return embedErr
	}, e.cfg.Retry)
	if err != nil || len(vecs) != len(tokens) {
		slog.Warn("embedding unavailable, cache fast path disabled for run", "error", err)
		return nil
	}
	return vecs
}

// decide runs one row through the decision ladder: empty, cache hit,
// exact match, suggestion, unknown. Context rules are applied last and
// override any category, including rows that would otherwise be pending.
func (e *Engine) decide(ctx context.Context, txn model.Transaction, token string, emb []float64) (model.CategorizedTransaction, *model.PendingResolution) {
	row := model.CategorizedTransaction{
		Transaction:   txn,
		MerchantClean: token,
		State:         model.StateTokenized,
	}

	if strings.TrimSpace(txn.Description) == "" {
		row.Category = model.UnknownCategory
		row.Source = model.SourceNone
		row.State = model.StateResolved
		return row, nil
	}

	if e.deps.Cache != nil && len(emb) > 0 {
		if hit, ok := e.deps.Cache.Lookup(token, emb); ok {
			row.Category = hit.Category
			row.Source = model.SourceCache
			row.Confidence = hit.Similarity
			row.State = model.StateResolved
			return e.applyRules(row), nil
		}
	}

	outcome := e.deps.Resolver.Resolve(token)
	switch outcome.Kind {
	case model.OutcomeExact:
		row.Entity = outcome.Entity.CanonicalName
		row.Category = outcome.Entity.DefaultCategory
		row.Source = model.SourceExactMatch
		row.Confidence = outcome.Score
		row.State = model.StateExactResolved
		return e.applyRules(row), nil

	case model.OutcomeSuggested:
		if e.cfg.AutoAcceptSuggestions {
			canonical := outcome.Entity.CanonicalName
			category := outcome.Entity.DefaultCategory
			if entity := e.register(token, canonical, category); entity != nil {
				canonical, category = entity.CanonicalName, entity.DefaultCategory
			}
			row.Entity = canonical
			row.Category = category
			row.Source = model.SourceFuzzyMatch
			row.Confidence = outcome.Score
			row.State = model.StateResolved
			row = e.applyRules(row)
			e.remember(ctx, token, row.Category, emb)
			return row, nil
		}
		row.State = model.StateFuzzySuggested
		pend := &model.PendingResolution{
			TransactionID:     txn.ID,
			RawDescription:    txn.Description,
			CleanedToken:      token,
			SuggestedEntity:   outcome.Entity.CanonicalName,
			SuggestedCategory: outcome.Entity.DefaultCategory,
			SuggestedScore:    outcome.Score,
		}
		return e.finishOrSuspend(row, pend)

	default:
		pend := &model.PendingResolution{
			TransactionID:  txn.ID,
			RawDescription: txn.Description,
			CleanedToken:   token,
		}
		return e.finishOrSuspend(row, pend)
	}
}

// finishOrSuspend settles a would-be pending row with a context rule when
// one applies; otherwise the row suspends in AwaitingUserInput.
func (e *Engine) finishOrSuspend(row model.CategorizedTransaction, pend *model.PendingResolution) (model.CategorizedTransaction, *model.PendingResolution) {
	if e.deps.Rules != nil {
		if m := e.deps.Rules.Apply(row.Description); m != nil {
			row.Category = m.Category
			row.Source = model.SourceContextRule
			row.Confidence = 1.0
			row.State = model.StateResolved
			return row, nil
		}
	}
	row.State = model.StateAwaitingUserInput
	return row, pend
}

// applyRules overrides the category of a terminal row when a context rule
// matches the raw description. Identity and state are preserved.
func (e *Engine) applyRules(row model.CategorizedTransaction) model.CategorizedTransaction {
	if e.deps.Rules == nil {
		return row
	}
	if m := e.deps.Rules.Apply(row.Description); m != nil {
		row.Category = m.Category
		row.Source = model.SourceContextRule
	}
	return row
}

// settleFromDirectory re-resolves a pending row against the phonebook.
// Decisions made earlier in the same run register new entities, so rows
// that were unknown when first decided may now resolve Exact.
func (e *Engine) settleFromDirectory(row model.CategorizedTransaction, p model.PendingResolution) (model.CategorizedTransaction, bool) {
	outcome := e.deps.Resolver.Resolve(p.CleanedToken)
	if outcome.Kind != model.OutcomeExact {
		return row, false
	}
	row.Entity = outcome.Entity.CanonicalName
	row.Category = outcome.Entity.DefaultCategory
	row.Source = model.SourceExactMatch
	row.Confidence = outcome.Score
	row.State = model.StateExactResolved
	return e.applyRules(row), true
}

// register links an alias to a canonical entity, falling back to the
// current alias owner when another writer won the race.
func (e *Engine) register(token, canonicalName, category string) *model.Entity {
	entity, err := e.deps.Directory.Register(token, canonicalName, category)
	if err != nil {
		if errors.Is(err, common.ErrAliasConflict) {
			if owner, ok := e.deps.Directory.FindByAlias(token); ok {
				return owner
			}
		}
		slog.Warn("phonebook registration failed",
			"alias", token,
			"canonical", canonicalName,
			"error", err)
		return nil
	}
	return entity
}

// remember writes a settled decision back to the vector cache so future
// runs take the fast path. Re-embeds the token when the run had no
// embedding for it; failures are logged and dropped.
func (e *Engine) remember(ctx context.Context, token, category string, emb []float64) {
	if e.deps.Cache == nil || token == "" {
		return
	}
	if category == "" || category == model.UnknownCategory {
		return
	}
	if len(emb) == 0 {
		if e.deps.Embedder == nil {
			return
		}
		vecs, err := e.deps.Embedder.EmbedBatch(ctx, []string{token})
		if err != nil || len(vecs) != 1 {
			slog.Warn("failed to embed learned decision", "token", token, "error", err)
			return
		}
		emb = vecs[0]
	}
	if err := e.deps.Cache.Insert(ctx, token, emb, category); err != nil {
		slog.Warn("failed to persist learned decision", "token", token, "error", err)
	}
}
