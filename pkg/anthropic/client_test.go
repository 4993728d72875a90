package anthropic

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/screening-cli/internal/resilience"
)

func TestFromSDKMessage(t *testing.T) {
	resp := fromSDKMessage(&sdk.Message{
		ID:         "msg_1",
		Model:      "claude-haiku-4-5-20251001",
		StopReason: "end_turn",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: `{"pack_years": `},
			{Type: "text", Text: `30}`},
		},
		Usage: sdk.Usage{InputTokens: 100, OutputTokens: 20, CacheReadInputTokens: 900},
	})

	require.NotNil(t, resp)
	assert.Equal(t, "msg_1", resp.ID)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, `{"pack_years": 30}`, resp.Text())
	assert.Equal(t, int64(900), resp.Usage.CacheReadInputTokens)
}

func TestMessageResponse_TextSkipsNonText(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "thinking", Text: "hmm"},
		{Type: "text", Text: "answer"},
	}}
	assert.Equal(t, "answer", resp.Text())
}

func TestToSDKMessages(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "Note"},
		{Role: "assistant", Content: "{"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, sdk.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, sdk.MessageParamRoleAssistant, msgs[1].Role)
	assert.Empty(t, toSDKMessages(nil))
}

func TestToSDKSystemBlocks(t *testing.T) {
	blocks := toSDKSystemBlocks([]SystemBlock{
		{Text: "plain"},
		{Text: "cached", CacheControl: &CacheControl{TTL: "1h"}},
	})
	require.Len(t, blocks, 2)
	assert.Equal(t, "plain", blocks[0].Text)
	assert.Equal(t, "cached", blocks[1].Text)
	assert.Equal(t, sdk.CacheControlEphemeralTTL("1h"), blocks[1].CacheControl.TTL)
}

func apiError(status int) *sdk.Error {
	return &sdk.Error{
		StatusCode: status,
		Request:    httptest.NewRequest(http.MethodPost, "https://api.anthropic.com/v1/messages", nil),
		Response:   &http.Response{StatusCode: status},
	}
}

func TestClassify(t *testing.T) {
	overloaded := classify(apiError(529))
	assert.True(t, resilience.IsTransient(overloaded))
	var te *resilience.TransientError
	require.ErrorAs(t, overloaded, &te)
	assert.Equal(t, 529, te.StatusCode)

	unauthorized := classify(apiError(401))
	assert.False(t, resilience.IsTransient(unauthorized))
	assert.Contains(t, unauthorized.Error(), "401 Unauthorized")

	plain := errors.New("boom")
	assert.Equal(t, plain, classify(plain))
}

func TestTokenUsage_Add(t *testing.T) {
	var total TokenUsage
	total.Add(TokenUsage{InputTokens: 10, OutputTokens: 2})
	total.Add(TokenUsage{InputTokens: 5, CacheReadInputTokens: 7})
	assert.Equal(t, TokenUsage{InputTokens: 15, OutputTokens: 2, CacheReadInputTokens: 7}, total)
}

func TestEstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 6.0, u.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
	assert.InDelta(t, 18.0, u.EstimateCost("claude-sonnet-4-5-20250929"), 1e-9)
	assert.Zero(t, u.EstimateCost("unknown-model"))

	cached := TokenUsage{CacheCreationInputTokens: 1_000_000, CacheReadInputTokens: 1_000_000}
	assert.InDelta(t, 1.35, cached.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
}

func TestLogCost_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		TokenUsage{InputTokens: 1}.LogCost("claude-haiku-4-5-20251001", "augment")
	})
}

func TestNewClient_ReturnsNonNil(t *testing.T) {
	assert.NotNil(t, NewClient("test-api-key"))
}
