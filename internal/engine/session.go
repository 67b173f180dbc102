package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillfin/quill/internal/common"
	"github.com/quillfin/quill/internal/model"
	"github.com/quillfin/quill/internal/service"
)

// Resume re-enters a paused run, applying decisions to its pending rows.
// Rows without a decision are re-resolved against the phonebook (earlier
// decisions may have registered their merchant) and then prompted when a
// prompter is attached; anything undecided after that stays pending.
// Applying the same decisions again is a no-op: decided rows leave the
// session, and results are keyed by (run, transaction) so a replay cannot
// duplicate them.
func (e *Engine) Resume(ctx context.Context, sessionID string, decisions map[string]model.Decision) (*RunResult, error) {
	state, err := e.deps.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var still []model.PendingResolution
	var settled []model.CategorizedTransaction
	applied := make(map[string]model.Decision, len(state.Decisions)+len(decisions))
	for id, d := range state.Decisions {
		applied[id] = d
	}

	promptFailed := false
	for _, p := range state.Pending {
		row := model.CategorizedTransaction{
			Transaction: model.Transaction{
				ID:          p.TransactionID,
				Description: p.RawDescription,
			},
			MerchantClean: p.CleanedToken,
		}

		decision, ok := decisions[p.TransactionID]
		if !ok {
			if resolved, hit := e.settleFromDirectory(row, p); hit {
				settled = append(settled, resolved)
				continue
			}
			if e.deps.Prompter == nil || promptFailed {
				still = append(still, p)
				continue
			}
			decision, err = e.deps.Prompter.ConfirmResolution(ctx, p)
			if err != nil {
				common.LogError(err, "resolution prompt failed, row stays pending", common.Fields{
					"session_id":     sessionID,
					"transaction_id": p.TransactionID,
				})
				promptFailed = true
				still = append(still, p)
				continue
			}
		}
		settled = append(settled, e.applyDecision(ctx, row, p, decision, nil))
		applied[p.TransactionID] = decision
	}

	if len(settled) > 0 {
		if err := e.deps.Results.SaveResults(ctx, sessionID, settled); err != nil {
			return nil, fmt.Errorf("failed to save resumed results: %w", err)
		}
	}

	resolved := append(state.Resolved, settled...)

	if len(still) == 0 {
		if err := e.deps.Sessions.CloseSession(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("failed to close session %s: %w", sessionID, err)
		}
		return &RunResult{RunID: sessionID, Transactions: resolved}, nil
	}

	next := service.SessionState{
		SessionID: sessionID,
		Pending:   still,
		Resolved:  resolved,
		Decisions: applied,
	}
	if err := e.deps.Sessions.SaveSession(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return &RunResult{
		RunID:        sessionID,
		SessionID:    sessionID,
		Transactions: resolved,
		Pending:      still,
	}, nil
}

// applyDecision settles one pending row. Accept and new-identity feed the
// phonebook and the vector cache; skip is terminal and never remembered.
func (e *Engine) applyDecision(ctx context.Context, row model.CategorizedTransaction, p model.PendingResolution, decision model.Decision, emb []float64) model.CategorizedTransaction {
	switch decision.Action {
	case model.DecisionAccept:
		canonical := p.SuggestedEntity
		category := p.SuggestedCategory
		if entity := e.register(p.CleanedToken, canonical, category); entity != nil {
			canonical, category = entity.CanonicalName, entity.DefaultCategory
		}
		row.Entity = canonical
		row.Category = category
		row.Source = model.SourceUser
		row.Confidence = p.SuggestedScore
		row.State = model.StateResolved
		e.remember(ctx, p.CleanedToken, row.Category, emb)

	case model.DecisionNew:
		canonical := strings.TrimSpace(decision.CanonicalName)
		if canonical == "" {
			canonical = p.CleanedToken
		}
		category := strings.TrimSpace(decision.Category)
		if category == "" {
			category = model.UnknownCategory
		}
		if entity := e.register(p.CleanedToken, canonical, category); entity != nil {
			canonical, category = entity.CanonicalName, entity.DefaultCategory
		}
		row.Entity = canonical
		row.Category = category
		row.Source = model.SourceUser
		row.Confidence = 1.0
		row.State = model.StateResolved
		e.remember(ctx, p.CleanedToken, row.Category, emb)

	default: // skip
		row.Entity = ""
		row.Category = model.UnknownCategory
		row.Source = model.SourceNone
		row.State = model.StateSkipped
	}
	return row
}
