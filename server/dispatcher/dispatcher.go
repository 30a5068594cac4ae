// Package dispatcher is the backend side of the channel protocol: it matches
// inbound channel text against the reserved command prefixes in fixed
// priority order, runs the matching handler, and appends the textual response
// to the channel. Long-running commands first post a status placeholder that
// awaiting clients filter via their exclusion set.
package dispatcher

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/afterlinkhq/afterlink/chat"
	"github.com/afterlinkhq/afterlink/server/service/article"
	"github.com/afterlinkhq/afterlink/server/service/insight"
	"github.com/afterlinkhq/afterlink/server/service/lead"
	"github.com/afterlinkhq/afterlink/server/service/question"
	"github.com/afterlinkhq/afterlink/server/service/search"
	"github.com/afterlinkhq/afterlink/store"
)

// commandTimeout bounds one command's backend work. Generous enough for a
// full article generation; the client's polling budget is the user-facing
// ceiling.
const commandTimeout = 90 * time.Second

// Dispatcher routes channel commands to the domain services.
type Dispatcher struct {
	store     *store.Store
	search    *search.Service
	articles  *article.Service
	questions *question.Service
	insights  *insight.Accumulator
	scorer    *lead.Scorer
}

// New creates a dispatcher.
func New(
	store *store.Store,
	search *search.Service,
	articles *article.Service,
	questions *question.Service,
	insights *insight.Accumulator,
	scorer *lead.Scorer,
) *Dispatcher {
	return &Dispatcher{
		store:     store,
		search:    search,
		articles:  articles,
		questions: questions,
		insights:  insights,
		scorer:    scorer,
	}
}

// DispatchAsync handles one inbound user message in the background. The HTTP
// handler returns immediately; the client finds the response by polling.
func (d *Dispatcher) DispatchAsync(channelID int32, text string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		d.dispatch(ctx, channelID, text)
	}()
}

// dispatch matches the first reserved prefix and runs its handler. Unmatched
// text yields a generic unknown-command response.
func (d *Dispatcher) dispatch(ctx context.Context, channelID int32, text string) {
	for _, prefix := range chat.CommandPrefixes {
		if !strings.HasPrefix(text, prefix) {
			continue
		}
		payload := strings.TrimPrefix(text, prefix)
		switch prefix {
		case chat.PrefixSearch:
			d.handleSearch(ctx, channelID, payload)
		case chat.PrefixArticleQuestion:
			d.handleQuestion(ctx, channelID, payload)
		case chat.PrefixGetArticle:
			d.handleGetArticle(ctx, channelID, payload)
		case chat.PrefixArticle:
			d.handleArticle(ctx, channelID, payload)
		case chat.PrefixClearArticles:
			d.handleClear(ctx, channelID)
		case chat.PrefixGetInsights:
			d.handleGetInsights(ctx, channelID)
		case chat.PrefixMatchICP:
			d.handleMatchICP(ctx, channelID, payload)
		}
		return
	}
	d.post(ctx, channelID, chat.UnknownCommandReply)
}

func (d *Dispatcher) handleSearch(ctx context.Context, channelID int32, query string) {
	d.post(ctx, channelID, chat.StatusSearching)

	results, err := d.search.Search(ctx, query)
	if err != nil {
		slog.Error("search failed", "query", query, "error", err)
		d.postJSON(ctx, channelID, map[string]string{"error": err.Error()})
		return
	}
	d.postJSON(ctx, channelID, results)
}

func (d *Dispatcher) handleArticle(ctx context.Context, channelID int32, title string) {
	d.post(ctx, channelID, chat.StatusWriting)

	title = strings.TrimSpace(title)
	full, err := d.articles.Generate(ctx, title)
	if err != nil {
		slog.Error("article generation failed", "title", title, "error", err)
		d.postJSON(ctx, channelID, map[string]string{"error": err.Error()})
		return
	}
	d.postJSON(ctx, channelID, full)
}

func (d *Dispatcher) handleGetArticle(ctx context.Context, channelID int32, rawID string) {
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 32)
	if err != nil {
		d.postJSON(ctx, channelID, map[string]string{"error": "invalid article id"})
		return
	}

	full, err := d.articles.GetByID(ctx, int32(id))
	if err != nil {
		if chat.IsNotFound(err) {
			d.postJSON(ctx, channelID, map[string]string{"error": "article not found"})
		} else {
			slog.Error("article lookup failed", "id", id, "error", err)
			d.postJSON(ctx, channelID, map[string]string{"error": err.Error()})
		}
		return
	}
	d.postJSON(ctx, channelID, full)
}

func (d *Dispatcher) handleQuestion(ctx context.Context, channelID int32, payload string) {
	d.post(ctx, channelID, chat.StatusThinking)

	var req chat.QuestionRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		d.postJSON(ctx, channelID, map[string]string{"error": "malformed question payload"})
		return
	}

	answer, err := d.questions.Answer(ctx, &req)
	if err != nil {
		slog.Error("question turn failed", "session_user_id", req.SessionUserID, "error", err)
		d.postJSON(ctx, channelID, map[string]string{"error": err.Error()})
		return
	}
	d.postJSON(ctx, channelID, map[string]string{"response": answer})
}

func (d *Dispatcher) handleClear(ctx context.Context, channelID int32) {
	if err := d.articles.Clear(ctx); err != nil {
		slog.Error("clear failed", "error", err)
		d.postJSON(ctx, channelID, chat.ClearResult{Success: false, Message: err.Error()})
		return
	}
	d.postJSON(ctx, channelID, chat.ClearResult{Success: true, Message: "All articles and insights cleared."})
}

func (d *Dispatcher) handleGetInsights(ctx context.Context, channelID int32) {
	rows, err := d.insights.List(ctx)
	if err != nil {
		slog.Error("list insights failed", "error", err)
		d.postJSON(ctx, channelID, map[string]string{"error": err.Error()})
		return
	}

	insights := make([]chat.UserInsight, 0, len(rows))
	for _, row := range rows {
		insights = append(insights, toWireInsight(row))
	}
	d.postJSON(ctx, channelID, insights)
}

func (d *Dispatcher) handleMatchICP(ctx context.Context, channelID int32, payload string) {
	d.post(ctx, channelID, chat.StatusScoring)

	var req chat.MatchICPRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		d.postJSON(ctx, channelID, map[string]string{"error": "malformed match-icp payload"})
		return
	}

	scores, err := d.scorer.MatchICP(ctx, &req)
	if err != nil {
		slog.Error("icp matching failed", "error", err)
		d.postJSON(ctx, channelID, map[string]string{"error": err.Error()})
		return
	}
	d.postJSON(ctx, channelID, scores)
}

// post appends an assistant message to the channel.
func (d *Dispatcher) post(ctx context.Context, channelID int32, text string) {
	if _, err := d.store.CreateChannelMessage(ctx, &store.ChannelMessage{
		UID:       uuid.NewString(),
		ChannelID: channelID,
		Role:      store.ChannelMessageRoleAssistant,
		Content:   text,
	}); err != nil {
		slog.Error("failed to post channel message", "channel_id", channelID, "error", err)
	}
}

func (d *Dispatcher) postJSON(ctx context.Context, channelID int32, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal response", "channel_id", channelID, "error", err)
		d.post(ctx, channelID, `{"error":"internal error"}`)
		return
	}
	d.post(ctx, channelID, string(payload))
}

func toWireInsight(row *store.UserInsight) chat.UserInsight {
	return chat.UserInsight{
		ID:                row.ID,
		SessionUserID:     row.SessionUserID,
		ArticleTitle:      row.ArticleTitle,
		Category:          row.Category,
		Insight:           row.Insight,
		RawMessage:        row.RawMessage,
		UserName:          row.UserName,
		ContactPreference: row.ContactPreference,
		UserEmail:         row.UserEmail,
		UserPhone:         row.UserPhone,
		CreatedTs:         row.CreatedTs,
		UpdatedTs:         row.UpdatedTs,
	}
}
