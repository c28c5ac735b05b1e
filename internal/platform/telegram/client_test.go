package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-token").WithBaseURL(srv.URL)
}

func TestSendMessageReturnsMessageID(t *testing.T) {
	client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		assert.Equal(t, "-100200", r.URL.Query().Get("chat_id"))
		assert.Equal(t, "HTML", r.URL.Query().Get("parse_mode"))
		assert.Equal(t, "55", r.URL.Query().Get("reply_to_message_id"))
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":42}}`)
	})

	id, err := client.SendMessage(context.Background(), -100200, "привет", &SendOptions{ReplyTo: 55})
	require.NoError(t, err)
	assert.Equal(t, 42, id)
}

func TestSendMessageAttachesKeyboard(t *testing.T) {
	client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		markup := r.URL.Query().Get("reply_markup")
		assert.Contains(t, markup, "Участвовать (7)")
		assert.Contains(t, markup, "participate:g1")
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":1}}`)
	})

	_, err := client.SendMessage(context.Background(), -100200, "пост", &SendOptions{
		Markup: ParticipateKeyboard("g1", 7),
	})
	require.NoError(t, err)
}

func TestSendDirectClassifiesBlocked(t *testing.T) {
	client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`)
	})

	result := client.SendDirect(context.Background(), 10, "привет")
	assert.Equal(t, OutcomeBlocked, result.Outcome)
	assert.Error(t, result.Err)
}

func TestSendDirectClassifiesRateLimit(t *testing.T) {
	client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 17","parameters":{"retry_after":17}}`)
	})

	result := client.SendDirect(context.Background(), 10, "привет")
	assert.Equal(t, OutcomeRateLimited, result.Outcome)
	assert.Equal(t, 17*time.Second, result.RetryAfter)
}

func TestSendDirectClassifiesOtherErrors(t *testing.T) {
	client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	})

	result := client.SendDirect(context.Background(), 10, "привет")
	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.ErrorContains(t, result.Err, "chat not found")
}

func TestSendDirectSuccess(t *testing.T) {
	client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":3}}`)
	})

	result := client.SendDirect(context.Background(), 10, "привет")
	assert.Equal(t, OutcomeOK, result.Outcome)
	assert.NoError(t, result.Err)
}

func TestGetChatMember(t *testing.T) {
	client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/getChatMember", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("user_id"))
		fmt.Fprint(w, `{"ok":true,"result":{"status":"administrator","user":{"id":10}}}`)
	})

	status, err := client.GetChatMember(context.Background(), -100200, 10)
	require.NoError(t, err)
	assert.Equal(t, "administrator", status)
}

func TestGetChat(t *testing.T) {
	client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"result":{"id":-100200,"type":"channel","title":"Новости","username":"news"}}`)
	})

	chat, err := client.GetChat(context.Background(), -100200)
	require.NoError(t, err)
	assert.Equal(t, int64(-100200), chat.ID)
	assert.Equal(t, "Новости", chat.Title)
	assert.Equal(t, "news", chat.Username)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "ok", OutcomeOK.String())
	assert.Equal(t, "blocked", OutcomeBlocked.String())
	assert.Equal(t, "rate_limited", OutcomeRateLimited.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}
