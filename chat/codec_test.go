package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeSearchResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{
			name:  "plain array",
			input: `[{"id":1,"title":"A","snippet":"a"},{"title":"B","snippet":"b"}]`,
			want:  2,
		},
		{
			name:  "fenced array with commentary",
			input: "Here are the results:\n```json\n[{\"title\":\"A\",\"snippet\":\"a\"}]\n```",
			want:  1,
		},
		{
			name:  "empty array",
			input: `[]`,
			want:  0,
		},
		{
			name:  "non-json degrades to empty",
			input: "I don't understand that query.",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeSearchResponse(tt.input)
			require.NotNil(t, got)
			require.Len(t, got, tt.want)
		})
	}
}

func TestDecodeSearchResponseIDPresence(t *testing.T) {
	got := DecodeSearchResponse(`[{"id":7,"title":"Stored","snippet":"s"},{"title":"Fresh","snippet":"f"}]`)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].ID)
	require.Equal(t, int32(7), *got[0].ID)
	require.Nil(t, got[1].ID)
}

func TestDecodeArticleResponse(t *testing.T) {
	t.Run("structured response", func(t *testing.T) {
		got := DecodeArticleResponse(`{"id":3,"title":"T","content":"Body text."}`)
		require.Equal(t, int32(3), got.ID)
		require.Equal(t, "Body text.", got.Content)
	})

	t.Run("plain text becomes the content", func(t *testing.T) {
		got := DecodeArticleResponse("  Just a raw article body without structure.  ")
		require.Equal(t, int32(0), got.ID)
		require.Equal(t, "Just a raw article body without structure.", got.Content)
	})
}

func TestDecodeGetArticleResponse(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		got, err := DecodeGetArticleResponse(`{"id":4,"title":"T","content":"c"}`)
		require.NoError(t, err)
		require.Equal(t, int32(4), got.ID)
	})

	t.Run("error field maps to not found", func(t *testing.T) {
		got, err := DecodeGetArticleResponse(`{"error":"article not found"}`)
		require.Nil(t, got)
		require.True(t, IsNotFound(err))
	})

	t.Run("unparseable is a decode error", func(t *testing.T) {
		_, err := DecodeGetArticleResponse("not structured at all")
		require.Error(t, err)
		require.False(t, IsNotFound(err))
	})
}

func TestDecodeQuestionResponse(t *testing.T) {
	t.Run("response field", func(t *testing.T) {
		got, err := DecodeQuestionResponse(`{"response":"Because compound interest."}`)
		require.NoError(t, err)
		require.Equal(t, "Because compound interest.", got)
	})

	t.Run("missing response field falls back", func(t *testing.T) {
		got, err := DecodeQuestionResponse(`{"something":"else"}`)
		require.NoError(t, err)
		require.Equal(t, DefaultAnswerFallback, got)
	})

	t.Run("error field propagates", func(t *testing.T) {
		_, err := DecodeQuestionResponse(`{"error":"generation failed"}`)
		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		require.Equal(t, "generation failed", upstream.Message)
	})
}

func TestDecodeClearResponse(t *testing.T) {
	require.True(t, DecodeClearResponse(`{"success":true,"message":"done"}`).Success)
	require.False(t, DecodeClearResponse("oops").Success)
}

func TestDecodeMatchICPResponse(t *testing.T) {
	got, err := DecodeMatchICPResponse(`[{"sessionUserId":"u1","score":47,"reason":"Weak: urgency."}]`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 47, got[0].Score)

	_, err = DecodeMatchICPResponse(`{"error":"scoring failed"}`)
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
}

func TestEncodeCommands(t *testing.T) {
	require.Equal(t, "SEARCH:retirement", EncodeSearch("retirement"))
	require.Equal(t, "ARTICLE:My Title", EncodeArticle("My Title"))
	require.Equal(t, "GET_ARTICLE:12", EncodeGetArticle(12))
	require.Equal(t, "CLEAR_ARTICLES", EncodeClearArticles())
	require.Equal(t, "GET_INSIGHTS", EncodeGetInsights())

	command, err := EncodeQuestion(&QuestionRequest{Question: "why", SessionUserID: "u1", IsFirstMessage: true})
	require.NoError(t, err)
	require.True(t, HasCommandPrefix(command))
	require.Contains(t, command, `"isFirstMessage":true`)
}
