package chat

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/afterlinkhq/afterlink/plugin/jsontext"
)

// DefaultAnswerFallback is used when an ARTICLE_QUESTION response parses but
// carries no response field.
const DefaultAnswerFallback = "I'm sorry, I couldn't come up with an answer just now. Please try again."

// errEnvelope captures an explicit error field in a decoded response.
type errEnvelope struct {
	Error string `json:"error"`
}

func upstreamErr(text string) (string, bool) {
	var env errEnvelope
	if err := jsontext.Unmarshal(text, &env); err != nil {
		return "", false
	}
	return env.Error, env.Error != ""
}

// EncodeSearch builds a SEARCH command for the raw query string.
func EncodeSearch(query string) string {
	return PrefixSearch + query
}

// DecodeSearchResponse decodes a search response into articles. Malformed or
// incomprehensible responses degrade to an empty result, never an error.
func DecodeSearchResponse(text string) []Article {
	var articles []Article
	if err := jsontext.Unmarshal(text, &articles); err != nil {
		return []Article{}
	}
	if articles == nil {
		return []Article{}
	}
	return articles
}

// EncodeArticle builds an ARTICLE command for a title.
func EncodeArticle(title string) string {
	return PrefixArticle + title
}

// DecodeArticleResponse decodes a generate-article response. When the text
// carries no parseable JSON, the entire response is treated as plain article
// content with id 0.
func DecodeArticleResponse(text string) FullArticle {
	var article FullArticle
	if err := jsontext.Unmarshal(text, &article); err != nil {
		return FullArticle{ID: 0, Content: strings.TrimSpace(text)}
	}
	return article
}

// EncodeGetArticle builds a GET_ARTICLE command for a stored article id.
func EncodeGetArticle(id int32) string {
	return PrefixGetArticle + strconv.FormatInt(int64(id), 10)
}

// DecodeGetArticleResponse decodes a stored-article response. A response
// carrying an error field yields ErrNotFound; unparseable text is a decode
// error since the contract requires structured output.
func DecodeGetArticleResponse(text string) (*FullArticle, error) {
	if msg, ok := upstreamErr(text); ok {
		return nil, errors.Wrap(ErrNotFound, msg)
	}
	var article FullArticle
	if err := jsontext.Unmarshal(text, &article); err != nil {
		return nil, errors.Wrap(err, "decode stored article response")
	}
	return &article, nil
}

// EncodeQuestion builds an ARTICLE_QUESTION command.
func EncodeQuestion(req *QuestionRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", errors.Wrap(err, "encode question request")
	}
	return PrefixArticleQuestion + string(payload), nil
}

// DecodeQuestionResponse decodes an article-question response. An error field
// propagates; a parsed response without a response field falls back to a
// default answer.
func DecodeQuestionResponse(text string) (string, error) {
	if msg, ok := upstreamErr(text); ok {
		return "", &UpstreamError{Message: msg}
	}
	var payload struct {
		Response *string `json:"response"`
	}
	if err := jsontext.Unmarshal(text, &payload); err != nil {
		return "", errors.Wrap(err, "decode question response")
	}
	if payload.Response == nil {
		return DefaultAnswerFallback, nil
	}
	return *payload.Response, nil
}

// EncodeClearArticles builds a CLEAR_ARTICLES command.
func EncodeClearArticles() string {
	return PrefixClearArticles
}

// DecodeClearResponse decodes a clear-all response; parse failures degrade
// to an unsuccessful result.
func DecodeClearResponse(text string) ClearResult {
	var result ClearResult
	if err := jsontext.Unmarshal(text, &result); err != nil {
		return ClearResult{Success: false}
	}
	return result
}

// EncodeGetInsights builds a GET_INSIGHTS command.
func EncodeGetInsights() string {
	return PrefixGetInsights
}

// DecodeInsightsResponse decodes collected lead insights.
func DecodeInsightsResponse(text string) ([]UserInsight, error) {
	if msg, ok := upstreamErr(text); ok {
		return nil, &UpstreamError{Message: msg}
	}
	var insights []UserInsight
	if err := jsontext.Unmarshal(text, &insights); err != nil {
		return nil, errors.Wrap(err, "decode insights response")
	}
	return insights, nil
}

// EncodeMatchICP builds a MATCH_ICP command.
func EncodeMatchICP(req *MatchICPRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", errors.Wrap(err, "encode match-icp request")
	}
	return PrefixMatchICP + string(payload), nil
}

// DecodeMatchICPResponse decodes a batch of lead scores.
func DecodeMatchICPResponse(text string) ([]LeadScore, error) {
	if msg, ok := upstreamErr(text); ok {
		return nil, &UpstreamError{Message: msg}
	}
	var scores []LeadScore
	if err := jsontext.Unmarshal(text, &scores); err != nil {
		return nil, errors.Wrap(err, "decode match-icp response")
	}
	return scores, nil
}
