package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeChannelAPI is an in-memory channel store. Tests append assistant
// messages directly to simulate the backend responding.
type fakeChannelAPI struct {
	mu       sync.Mutex
	nextID   int
	channels map[string][]*Message
}

func newFakeChannelAPI() *fakeChannelAPI {
	return &fakeChannelAPI{channels: make(map[string][]*Message)}
}

func (f *fakeChannelAPI) CreateChannel(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid := fmt.Sprintf("ch-%d", len(f.channels)+1)
	f.channels[uid] = nil
	return uid, nil
}

func (f *fakeChannelAPI) SendMessage(_ context.Context, channelUID string, text string) (*Message, error) {
	return f.append(channelUID, RoleUser, text), nil
}

func (f *fakeChannelAPI) ListMessages(_ context.Context, channelUID string) ([]*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	messages := f.channels[channelUID]
	out := make([]*Message, len(messages))
	copy(out, messages)
	return out, nil
}

func (f *fakeChannelAPI) DeleteChannel(_ context.Context, channelUID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.channels, channelUID)
	return nil
}

func (f *fakeChannelAPI) append(channelUID, role, text string) *Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg := &Message{ID: fmt.Sprintf("m-%d", f.nextID), Role: role, Text: text}
	f.channels[channelUID] = append(f.channels[channelUID], msg)
	return msg
}

func newTestCorrelator(api ChannelAPI) *Correlator {
	return NewCorrelator(api,
		WithPollInterval(time.Millisecond),
		WithPollAttempts(20),
	)
}

func TestAwaitReturnsQualifyingResponse(t *testing.T) {
	api := newFakeChannelAPI()
	corr := newTestCorrelator(api)
	ctx := context.Background()

	uid, err := api.CreateChannel(ctx)
	require.NoError(t, err)

	pending, err := corr.Send(ctx, uid, "SEARCH:retirement")
	require.NoError(t, err)

	api.append(uid, RoleAssistant, StatusSearching)
	api.append(uid, RoleAssistant, `[{"title":"A","snippet":"a"}]`)

	got, err := corr.Await(ctx, pending, AwaitOptions{Exclude: []string{StatusSearching}})
	require.NoError(t, err)
	require.Equal(t, `[{"title":"A","snippet":"a"}]`, got)
}

func TestAwaitSkipsOwnEchoAndCommandTraffic(t *testing.T) {
	api := newFakeChannelAPI()
	corr := newTestCorrelator(api)
	ctx := context.Background()

	uid, err := api.CreateChannel(ctx)
	require.NoError(t, err)

	pending, err := corr.Send(ctx, uid, "GET_INSIGHTS")
	require.NoError(t, err)

	// Another client's command on the same channel must never be taken as a
	// response.
	api.append(uid, RoleUser, "SEARCH:noise from someone else")
	api.append(uid, RoleAssistant, `[]`)

	got, err := corr.Await(ctx, pending, AwaitOptions{})
	require.NoError(t, err)
	require.Equal(t, `[]`, got)
}

func TestAwaitIgnoresMessagesBeforeTheSentCommand(t *testing.T) {
	api := newFakeChannelAPI()
	corr := newTestCorrelator(api)
	ctx := context.Background()

	uid, err := api.CreateChannel(ctx)
	require.NoError(t, err)

	// A previous turn's exchange is already on the channel.
	api.append(uid, RoleUser, "ARTICLE_QUESTION:{}")
	api.append(uid, RoleAssistant, `{"response":"earlier answer"}`)

	pending, err := corr.Send(ctx, uid, "ARTICLE_QUESTION:{}")
	require.NoError(t, err)
	api.append(uid, RoleAssistant, `{"response":"new answer"}`)

	got, err := corr.Await(ctx, pending, AwaitOptions{Exclude: []string{StatusThinking}})
	require.NoError(t, err)
	require.Equal(t, `{"response":"new answer"}`, got)
}

func TestAwaitEnforcesMinLength(t *testing.T) {
	api := newFakeChannelAPI()
	corr := newTestCorrelator(api)
	ctx := context.Background()

	uid, err := api.CreateChannel(ctx)
	require.NoError(t, err)

	pending, err := corr.Send(ctx, uid, "ARTICLE:Some Title")
	require.NoError(t, err)

	api.append(uid, RoleAssistant, "short")
	api.append(uid, RoleAssistant, "this response is long enough to qualify as an article body")

	got, err := corr.Await(ctx, pending, AwaitOptions{MinLength: 20})
	require.NoError(t, err)
	require.Equal(t, "this response is long enough to qualify as an article body", got)
}

func TestAwaitTimesOut(t *testing.T) {
	api := newFakeChannelAPI()
	corr := NewCorrelator(api,
		WithPollInterval(time.Millisecond),
		WithPollAttempts(3),
	)
	ctx := context.Background()

	uid, err := api.CreateChannel(ctx)
	require.NoError(t, err)

	pending, err := corr.Send(ctx, uid, "SEARCH:never answered")
	require.NoError(t, err)

	_, err = corr.Await(ctx, pending, AwaitOptions{})
	require.ErrorIs(t, err, ErrTimeout)
}

func TestAwaitHonorsContextCancellation(t *testing.T) {
	api := newFakeChannelAPI()
	corr := NewCorrelator(api,
		WithPollInterval(50*time.Millisecond),
		WithPollAttempts(100),
	)

	ctx, cancel := context.WithCancel(context.Background())
	uid, err := api.CreateChannel(ctx)
	require.NoError(t, err)

	pending, err := corr.Send(ctx, uid, "SEARCH:cancelled")
	require.NoError(t, err)

	cancel()
	_, err = corr.Await(ctx, pending, AwaitOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestClientRoundTripDeletesChannel(t *testing.T) {
	api := newFakeChannelAPI()
	client := NewClient(api, WithPollInterval(time.Millisecond), WithPollAttempts(20))
	ctx := context.Background()

	go func() {
		// Respond as the backend once the command shows up.
		for i := 0; i < 200; i++ {
			api.mu.Lock()
			for uid, messages := range api.channels {
				if len(messages) == 1 && messages[0].Role == RoleUser {
					api.mu.Unlock()
					api.append(uid, RoleAssistant, `[{"title":"A","snippet":"a"}]`)
					api.mu.Lock()
				}
			}
			api.mu.Unlock()
			time.Sleep(time.Millisecond)
		}
	}()

	results, err := client.Search(ctx, "anything")
	require.NoError(t, err)
	require.Len(t, results, 1)

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Empty(t, api.channels)
}
