// Package question runs the article-question session state machine.
//
// A session starts at the first turn, where the assistant never answers the
// clicked question: it names the personal-context category the question's own
// wording implies and asks the reader for that one piece of context. Every
// later turn extracts newly stated facts into the session's insight row and
// then answers plainly, without probing further.
package question

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/afterlinkhq/afterlink/chat"
	"github.com/afterlinkhq/afterlink/plugin/ai"
	"github.com/afterlinkhq/afterlink/server/service/insight"
)

// Service answers article-question turns.
type Service struct {
	llm      ai.LLMService
	insights *insight.Accumulator
}

// NewService creates a question service.
func NewService(llm ai.LLMService, insights *insight.Accumulator) *Service {
	return &Service{
		llm:      llm,
		insights: insights,
	}
}

// Answer runs one turn of a session. Session continuity lives entirely in
// the request payload (sessionUserId + conversationHistory); the service
// keeps no per-channel state.
func (s *Service) Answer(ctx context.Context, req *chat.QuestionRequest) (string, error) {
	if req == nil || req.Question == "" {
		return "", errors.New("question is required")
	}

	// Existing session memory grounds both states so already-stated facts
	// are never re-requested.
	note, err := s.insights.SessionNote(ctx, req.SessionUserID)
	if err != nil {
		slog.Warn("failed to load session note", "session_user_id", req.SessionUserID, "error", err)
		note = ""
	}

	if req.IsFirstMessage {
		// No fact extraction on the first turn.
		return s.llm.Chat(ctx, firstTurnMessages(req, note))
	}

	userTurns := collectUserTurns(req.ConversationHistory)
	if err := s.insights.ExtractAndMerge(ctx, req.SessionUserID, req.ArticleTitle, userTurns, req.ContactInfo); err != nil {
		// A failed extraction must not break the conversation.
		slog.Warn("insight extraction failed", "session_user_id", req.SessionUserID, "error", err)
	}

	refreshed, err := s.insights.SessionNote(ctx, req.SessionUserID)
	if err == nil && refreshed != "" {
		note = refreshed
	}

	return s.llm.Chat(ctx, followUpMessages(req, note))
}

// collectUserTurns returns every user-authored turn text in order.
func collectUserTurns(history []chat.ConversationMessage) []string {
	var turns []string
	for _, msg := range history {
		if msg.Role == "user" {
			turns = append(turns, msg.Content)
		}
	}
	return turns
}

func firstTurnMessages(req *chat.QuestionRequest, note string) []ai.Message {
	system := fmt.Sprintf(`A reader of the article %q clicked an embedded curiosity question.

Paragraph context:
%s

Clicked question: %s
%s
Do NOT answer the question yet. Instead:
1. Name the personal-context category the question's own wording implies
   (for example, a question about "my budget" implies the category is budget).
2. Ask the reader to share that one piece of context, in a single friendly
   sentence.
Never ask for anything already known from the notes.`,
		req.ArticleTitle, req.ParagraphContext, req.Question, notesSection(note))
	return []ai.Message{ai.SystemPrompt(system), ai.UserMessage(req.Question)}
}

func followUpMessages(req *chat.QuestionRequest, note string) []ai.Message {
	system := fmt.Sprintf(`A reader of the article %q is in a conversation about an embedded curiosity question.

Paragraph context:
%s

Original clicked question: %s
%s
Answer the reader directly and plainly, using the paragraph context and any
known notes about them. Do not ask a question back. Do not probe for more
personal information.`,
		req.ArticleTitle, req.ParagraphContext, req.Question, notesSection(note))

	messages := []ai.Message{ai.SystemPrompt(system)}
	for _, msg := range req.ConversationHistory {
		switch msg.Role {
		case "user":
			messages = append(messages, ai.UserMessage(msg.Content))
		case "assistant":
			messages = append(messages, ai.AssistantMessage(msg.Content))
		}
	}
	return messages
}

func notesSection(note string) string {
	if strings.TrimSpace(note) == "" {
		return "\n"
	}
	return fmt.Sprintf("\nKnown notes about the reader:\n%s\n\n", note)
}
