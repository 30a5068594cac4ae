// Package insight progressively builds one structured lead note per session
// from unstructured chat turns.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/afterlinkhq/afterlink/chat"
	"github.com/afterlinkhq/afterlink/plugin/ai"
	"github.com/afterlinkhq/afterlink/plugin/jsontext"
	"github.com/afterlinkhq/afterlink/store"
)

// Store is the persistence surface the accumulator needs.
type Store interface {
	GetUserInsight(ctx context.Context, find *store.FindUserInsight) (*store.UserInsight, error)
	UpsertUserInsight(ctx context.Context, upsert *store.UserInsight) (*store.UserInsight, error)
	ListUserInsights(ctx context.Context, find *store.FindUserInsight) ([]*store.UserInsight, error)
}

// Accumulator maintains at most one lead note row per session, merging newly
// stated facts into the existing note rather than appending duplicate rows.
type Accumulator struct {
	store Store
	llm   ai.LLMService

	// mu guards locks; each session gets its own write lock so concurrent
	// turns from one session cannot race the find-or-create.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAccumulator creates an accumulator.
func NewAccumulator(store Store, llm ai.LLMService) *Accumulator {
	return &Accumulator{
		store: store,
		llm:   llm,
		locks: make(map[string]*sync.Mutex),
	}
}

// extraction is the structured result of the fact-extraction generation call.
type extraction struct {
	Theme string `json:"theme"`
	Note  string `json:"note"`
}

// knownCategories are the themes extraction may yield; anything else is
// normalized to "other".
var knownCategories = map[string]struct{}{
	"budget":   {},
	"location": {},
	"timeline": {},
	"family":   {},
	"work":     {},
	"interest": {},
	"contact":  {},
	"other":    {},
}

// ExtractAndMerge runs fact extraction over all user-authored turns and
// merges the result into the session's insight row. An empty or unparseable
// extraction is a normal outcome: no row is created or modified.
func (a *Accumulator) ExtractAndMerge(ctx context.Context, sessionUserID string, articleTitle string, userTurns []string, contact *chat.ContactInfo) error {
	if sessionUserID == "" || len(userTurns) == 0 {
		return nil
	}

	lock := a.sessionLock(sessionUserID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := a.store.GetUserInsight(ctx, &store.FindUserInsight{SessionUserID: &sessionUserID})
	if err != nil {
		return errors.Wrap(err, "find existing insight")
	}

	previousNote := ""
	if existing != nil {
		previousNote = existing.Insight
	}

	response, err := a.llm.Generate(ctx, extractionPrompt(userTurns, previousNote), 400)
	if err != nil {
		return errors.Wrap(err, "generate extraction")
	}

	var result extraction
	if err := jsontext.Unmarshal(response, &result); err != nil {
		slog.Debug("insight extraction yielded no parseable result",
			"session_user_id", sessionUserID,
			"error", err)
		return nil
	}
	result.Note = strings.TrimSpace(result.Note)
	if result.Note == "" {
		return nil
	}

	category := strings.ToLower(strings.TrimSpace(result.Theme))
	if _, ok := knownCategories[category]; !ok {
		category = "other"
	}

	row := &store.UserInsight{
		SessionUserID: sessionUserID,
		ArticleTitle:  articleTitle,
		Category:      category,
		Insight:       result.Note,
		RawMessage:    userTurns[len(userTurns)-1],
	}
	if existing != nil {
		row.UserName = existing.UserName
		row.ContactPreference = existing.ContactPreference
		row.UserEmail = existing.UserEmail
		row.UserPhone = existing.UserPhone
	}
	if contact != nil {
		if contact.UserName != "" {
			row.UserName = contact.UserName
		}
		if contact.ContactPreference != "" {
			row.ContactPreference = contact.ContactPreference
		}
		if contact.UserEmail != "" {
			row.UserEmail = contact.UserEmail
		}
		if contact.UserPhone != "" {
			row.UserPhone = contact.UserPhone
		}
	}

	if _, err := a.store.UpsertUserInsight(ctx, row); err != nil {
		return errors.Wrap(err, "upsert insight")
	}
	return nil
}

// SessionNote returns the existing note text for a session, or "".
func (a *Accumulator) SessionNote(ctx context.Context, sessionUserID string) (string, error) {
	if sessionUserID == "" {
		return "", nil
	}
	existing, err := a.store.GetUserInsight(ctx, &store.FindUserInsight{SessionUserID: &sessionUserID})
	if err != nil {
		return "", err
	}
	if existing == nil {
		return "", nil
	}
	return existing.Insight, nil
}

// List returns every accumulated insight row.
func (a *Accumulator) List(ctx context.Context) ([]*store.UserInsight, error) {
	return a.store.ListUserInsights(ctx, &store.FindUserInsight{})
}

func (a *Accumulator) sessionLock(sessionUserID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.locks[sessionUserID]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[sessionUserID] = lock
	}
	return lock
}

func extractionPrompt(userTurns []string, previousNote string) string {
	var sb strings.Builder
	sb.WriteString(`Extract personal facts a reader has explicitly stated about themselves.

Strict rules:
- Keep only facts stated literally. No inference, no estimation.
- Asking a question is not a fact and must not be recorded as interest.
- Merge with the previous note: keep every previously recorded fact and add new ones.
- If nothing new and nothing previous qualifies, return an empty note.

Previous note:
`)
	if previousNote == "" {
		sb.WriteString("(none)\n")
	} else {
		sb.WriteString(previousNote + "\n")
	}
	sb.WriteString("\nEverything the reader has written, oldest first:\n")
	for i, turn := range userTurns {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, turn))
	}
	sb.WriteString(`
Respond with only JSON: {"theme":"budget|location|timeline|family|work|interest|contact|other","note":"all facts as one concise paragraph, or empty"}`)
	return sb.String()
}
