package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/bridle/provider"
)

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		name     string
		msg      Message
		wantRole Role
		wantText string
	}{
		{
			name:     "system",
			msg:      SystemMessage("You are a schema-bound summarizer."),
			wantRole: RoleSystem,
			wantText: "You are a schema-bound summarizer.",
		},
		{
			name:     "user",
			msg:      UserMessage("Summarize this release note"),
			wantRole: RoleUser,
			wantText: "Summarize this release note",
		},
		{
			name:     "assistant",
			msg:      AssistantMessage(`{"title":"Done"}`),
			wantRole: RoleAssistant,
			wantText: `{"title":"Done"}`,
		},
		{
			name:     "empty content is allowed",
			msg:      UserMessage(""),
			wantRole: RoleUser,
			wantText: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantRole, tt.msg.Role)
			assert.Equal(t, tt.wantText, tt.msg.Content)
			assert.Empty(t, tt.msg.ToolCalls)
			assert.Empty(t, tt.msg.ToolID)
		})
	}
}

func TestAssistantMessageWithToolCalls(t *testing.T) {
	calls := []ToolCall{
		{ID: "call_1", Name: "get_weather", Arguments: `{"city":"Tokyo"}`},
		{ID: "call_2", Name: "file_ticket", Arguments: `{"priority":"urgent"}`},
	}

	msg := AssistantMessageWithToolCalls("checking", calls)

	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Equal(t, "checking", msg.Content)
	require.Len(t, msg.ToolCalls, 2)
	for i, tc := range calls {
		assert.Equal(t, provider.ToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments}, msg.ToolCalls[i])
	}
}

func TestAssistantMessageWithToolCalls_Empty(t *testing.T) {
	msg := AssistantMessageWithToolCalls("no tools needed", nil)

	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Empty(t, msg.ToolCalls)
}

func TestToolMessage(t *testing.T) {
	msg := ToolMessage("call_9", `{"temperature":22.5}`)

	assert.Equal(t, RoleTool, msg.Role)
	assert.Equal(t, "call_9", msg.ToolID)
	assert.Equal(t, `{"temperature":22.5}`, msg.Content)
	assert.Empty(t, msg.ToolCalls)
}

func TestRoleConstants(t *testing.T) {
	assert.Equal(t, Role("system"), RoleSystem)
	assert.Equal(t, Role("user"), RoleUser)
	assert.Equal(t, Role("assistant"), RoleAssistant)
	assert.Equal(t, Role("tool"), RoleTool)
}
