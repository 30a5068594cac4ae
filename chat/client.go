package chat

import (
	"context"
	"io"
)

// Minimum response lengths per command. Generated article bodies are long;
// everything else returns compact JSON.
const articleMinLength = 20

// Client is the typed command surface over the channel protocol. It opens
// one channel per top-level action, encodes the command, awaits the reply
// through the correlator and decodes it with the per-command policy.
//
// A Client is explicitly constructed and caller-owned so tests can
// instantiate isolated clients per case.
type Client struct {
	api  ChannelAPI
	corr *Correlator
}

// NewClient creates a client over the given channel API.
func NewClient(api ChannelAPI, opts ...CorrelatorOption) *Client {
	return &Client{
		api:  api,
		corr: NewCorrelator(api, opts...),
	}
}

// Close releases the underlying transport when it is closable.
func (c *Client) Close() error {
	if closer, ok := c.api.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// roundTrip opens a fresh channel, sends the command and awaits the reply.
func (c *Client) roundTrip(ctx context.Context, command string, opts AwaitOptions) (string, error) {
	channelUID, err := c.api.CreateChannel(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		// Channels are per-action; drop them once the exchange terminates.
		_ = c.api.DeleteChannel(context.WithoutCancel(ctx), channelUID)
	}()

	pending, err := c.corr.Send(ctx, channelUID, command)
	if err != nil {
		return "", err
	}
	return c.corr.Await(ctx, pending, opts)
}

// Search runs a search query and returns existing and freshly suggested
// articles. Entries with a nil ID are suggestions not yet persisted.
func (c *Client) Search(ctx context.Context, query string) ([]Article, error) {
	text, err := c.roundTrip(ctx, EncodeSearch(query), AwaitOptions{
		Exclude: []string{StatusSearching},
	})
	if err != nil {
		return nil, err
	}
	return DecodeSearchResponse(text), nil
}

// GenerateArticle generates (or fetches) a full article body by title.
func (c *Client) GenerateArticle(ctx context.Context, title string) (FullArticle, error) {
	text, err := c.roundTrip(ctx, EncodeArticle(title), AwaitOptions{
		Exclude:   []string{StatusWriting},
		MinLength: articleMinLength,
	})
	if err != nil {
		return FullArticle{}, err
	}
	return DecodeArticleResponse(text), nil
}

// GetArticle fetches a stored article by id.
func (c *Client) GetArticle(ctx context.Context, id int32) (*FullArticle, error) {
	text, err := c.roundTrip(ctx, EncodeGetArticle(id), AwaitOptions{})
	if err != nil {
		return nil, err
	}
	return DecodeGetArticleResponse(text)
}

// AskQuestion runs one article-question turn on a fresh channel. Session
// continuity is carried by req.SessionUserID, not by channel identity.
func (c *Client) AskQuestion(ctx context.Context, req *QuestionRequest) (string, error) {
	command, err := EncodeQuestion(req)
	if err != nil {
		return "", err
	}
	text, err := c.roundTrip(ctx, command, AwaitOptions{
		Exclude: []string{StatusThinking},
	})
	if err != nil {
		return "", err
	}
	return DecodeQuestionResponse(text)
}

// ClearAll wipes all stored articles, contents and insights.
func (c *Client) ClearAll(ctx context.Context) (ClearResult, error) {
	text, err := c.roundTrip(ctx, EncodeClearArticles(), AwaitOptions{})
	if err != nil {
		return ClearResult{}, err
	}
	return DecodeClearResponse(text), nil
}

// GetInsights returns all accumulated lead insights.
func (c *Client) GetInsights(ctx context.Context) ([]UserInsight, error) {
	text, err := c.roundTrip(ctx, EncodeGetInsights(), AwaitOptions{})
	if err != nil {
		return nil, err
	}
	return DecodeInsightsResponse(text)
}

// MatchICP scores the given leads against an ICP description. Results come
// back sorted by score descending.
func (c *Client) MatchICP(ctx context.Context, req *MatchICPRequest) ([]LeadScore, error) {
	command, err := EncodeMatchICP(req)
	if err != nil {
		return nil, err
	}
	text, err := c.roundTrip(ctx, command, AwaitOptions{
		Exclude: []string{StatusScoring},
	})
	if err != nil {
		return nil, err
	}
	return DecodeMatchICPResponse(text)
}

// Session is a multi-turn question session that retains one channel across
// turns. Callers that drop the handle fall back to per-turn channels via
// Client.AskQuestion.
type Session struct {
	client     *Client
	channelUID string
}

// NewSession opens a channel for a multi-turn question session.
func (c *Client) NewSession(ctx context.Context) (*Session, error) {
	channelUID, err := c.api.CreateChannel(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{client: c, channelUID: channelUID}, nil
}

// Ask runs one question turn on the session's channel.
func (s *Session) Ask(ctx context.Context, req *QuestionRequest) (string, error) {
	command, err := EncodeQuestion(req)
	if err != nil {
		return "", err
	}
	pending, err := s.client.corr.Send(ctx, s.channelUID, command)
	if err != nil {
		return "", err
	}
	text, err := s.client.corr.Await(ctx, pending, AwaitOptions{
		Exclude: []string{StatusThinking},
	})
	if err != nil {
		return "", err
	}
	return DecodeQuestionResponse(text)
}

// Close discards the session channel.
func (s *Session) Close(ctx context.Context) error {
	return s.client.api.DeleteChannel(ctx, s.channelUID)
}
