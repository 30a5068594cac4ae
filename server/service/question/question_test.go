package question

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/afterlinkhq/afterlink/chat"
	"github.com/afterlinkhq/afterlink/plugin/ai"
	"github.com/afterlinkhq/afterlink/server/service/insight"
	"github.com/afterlinkhq/afterlink/store"
)

type mockLLM struct {
	chatFunc     func(ctx context.Context, messages []ai.Message) (string, error)
	generateFunc func(ctx context.Context, prompt string, maxTokens int) (string, error)
}

func (m *mockLLM) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	return m.chatFunc(ctx, messages)
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if m.generateFunc == nil {
		return "", nil
	}
	return m.generateFunc(ctx, prompt, maxTokens)
}

type memStore struct {
	rows map[string]*store.UserInsight
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]*store.UserInsight)}
}

func (m *memStore) GetUserInsight(_ context.Context, find *store.FindUserInsight) (*store.UserInsight, error) {
	if find.SessionUserID == nil {
		return nil, nil
	}
	return m.rows[*find.SessionUserID], nil
}

func (m *memStore) UpsertUserInsight(_ context.Context, upsert *store.UserInsight) (*store.UserInsight, error) {
	m.rows[upsert.SessionUserID] = upsert
	return upsert, nil
}

func (m *memStore) ListUserInsights(_ context.Context, _ *store.FindUserInsight) ([]*store.UserInsight, error) {
	out := make([]*store.UserInsight, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out, nil
}

func firstTurnRequest() *chat.QuestionRequest {
	return &chat.QuestionRequest{
		ArticleTitle:     "Retiring at 50",
		ParagraphContext: "How much you need depends on your monthly spending.",
		Question:         "how much do I need",
		SessionUserID:    "u1",
		IsFirstMessage:   true,
	}
}

func TestAnswerFirstTurnAsksForContextAndExtractsNothing(t *testing.T) {
	st := newMemStore()
	generateCalls := 0
	llm := &mockLLM{
		chatFunc: func(_ context.Context, messages []ai.Message) (string, error) {
			require.NotEmpty(t, messages)
			require.Equal(t, "system", messages[0].Role)
			require.Contains(t, messages[0].Content, "Do NOT answer the question yet")
			return "Happy to help. What is your monthly budget?", nil
		},
		generateFunc: func(_ context.Context, _ string, _ int) (string, error) {
			generateCalls++
			return `{"theme":"budget","note":"should not happen"}`, nil
		},
	}
	svc := NewService(llm, insight.NewAccumulator(st, llm))

	answer, err := svc.Answer(context.Background(), firstTurnRequest())
	require.NoError(t, err)
	require.Equal(t, "Happy to help. What is your monthly budget?", answer)

	// The first turn never runs extraction and never creates an insight row.
	require.Zero(t, generateCalls)
	require.Empty(t, st.rows)
}

func TestAnswerFollowUpExtractsThenAnswers(t *testing.T) {
	st := newMemStore()
	llm := &mockLLM{
		chatFunc: func(_ context.Context, messages []ai.Message) (string, error) {
			require.Contains(t, messages[0].Content, "Answer the reader directly")
			// The merged note grounds the answer.
			require.Contains(t, messages[0].Content, "Budget is $800/month.")
			return "With $800 a month you are on track for age 55.", nil
		},
		generateFunc: func(_ context.Context, prompt string, _ int) (string, error) {
			require.Contains(t, prompt, "My budget is $800 a month.")
			return `{"theme":"budget","note":"Budget is $800/month."}`, nil
		},
	}
	svc := NewService(llm, insight.NewAccumulator(st, llm))

	req := firstTurnRequest()
	req.IsFirstMessage = false
	req.ConversationHistory = []chat.ConversationMessage{
		{Role: "user", Content: "how much do I need"},
		{Role: "assistant", Content: "What is your monthly budget?"},
		{Role: "user", Content: "My budget is $800 a month."},
	}

	answer, err := svc.Answer(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "With $800 a month you are on track for age 55.", answer)

	require.Len(t, st.rows, 1)
	require.Equal(t, "Budget is $800/month.", st.rows["u1"].Insight)
}

func TestAnswerFollowUpSurvivesExtractionFailure(t *testing.T) {
	st := newMemStore()
	llm := &mockLLM{
		chatFunc: func(_ context.Context, _ []ai.Message) (string, error) {
			return "Here is a general answer.", nil
		},
		generateFunc: func(_ context.Context, _ string, _ int) (string, error) {
			return "", context.DeadlineExceeded
		},
	}
	svc := NewService(llm, insight.NewAccumulator(st, llm))

	req := firstTurnRequest()
	req.IsFirstMessage = false
	req.ConversationHistory = []chat.ConversationMessage{
		{Role: "user", Content: "how much do I need"},
	}

	answer, err := svc.Answer(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "Here is a general answer.", answer)
	require.Empty(t, st.rows)
}

func TestAnswerReplaysHistoryInOrder(t *testing.T) {
	st := newMemStore()
	llm := &mockLLM{
		chatFunc: func(_ context.Context, messages []ai.Message) (string, error) {
			require.Len(t, messages, 4)
			require.Equal(t, "system", messages[0].Role)
			require.Equal(t, "user", messages[1].Role)
			require.Equal(t, "assistant", messages[2].Role)
			require.Equal(t, "user", messages[3].Role)
			return "ok", nil
		},
		generateFunc: func(_ context.Context, _ string, _ int) (string, error) {
			return `{"theme":"other","note":""}`, nil
		},
	}
	svc := NewService(llm, insight.NewAccumulator(st, llm))

	req := firstTurnRequest()
	req.IsFirstMessage = false
	req.ConversationHistory = []chat.ConversationMessage{
		{Role: "user", Content: "q"},
		{Role: "assistant", Content: "a"},
		{Role: "user", Content: "follow-up"},
	}

	_, err := svc.Answer(context.Background(), req)
	require.NoError(t, err)
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	st := newMemStore()
	llm := &mockLLM{chatFunc: func(_ context.Context, _ []ai.Message) (string, error) { return "", nil }}
	svc := NewService(llm, insight.NewAccumulator(st, llm))

	_, err := svc.Answer(context.Background(), &chat.QuestionRequest{})
	require.Error(t, err)
}
