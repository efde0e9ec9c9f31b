package mcp

import (
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
)

func TestFlattenContent(t *testing.T) {
	tests := []struct {
		name    string
		content []mcp.Content
		want    string
	}{
		{
			name:    "no content",
			content: nil,
			want:    "",
		},
		{
			name: "single text item",
			content: []mcp.Content{
				&mcp.TextContent{Text: "47 crates in stock"},
			},
			want: "47 crates in stock",
		},
		{
			name: "text items joined with newlines",
			content: []mcp.Content{
				&mcp.TextContent{Text: "first"},
				&mcp.TextContent{Text: "second"},
				&mcp.TextContent{Text: "third"},
			},
			want: "first\nsecond\nthird",
		},
		{
			name: "image becomes a placeholder",
			content: []mcp.Content{
				&mcp.ImageContent{MIMEType: "image/png", Data: make([]byte, 32)},
			},
			want: "[Image: image/png, 32 bytes]",
		},
		{
			name: "resource with URI",
			content: []mcp.Content{
				&mcp.EmbeddedResource{
					Resource: &mcp.ResourceContents{URI: "file:///var/data/report.csv"},
				},
			},
			want: "[Resource: file:///var/data/report.csv]",
		},
		{
			name: "resource without contents",
			content: []mcp.Content{
				&mcp.EmbeddedResource{},
			},
			want: "[Resource: embedded]",
		},
		{
			name: "mixed items",
			content: []mcp.Content{
				&mcp.TextContent{Text: "inventory summary"},
				&mcp.ImageContent{MIMEType: "image/jpeg", Data: make([]byte, 8)},
				&mcp.EmbeddedResource{
					Resource: &mcp.ResourceContents{URI: "file:///tmp/out.json"},
				},
			},
			want: "inventory summary\n[Image: image/jpeg, 8 bytes]\n[Resource: file:///tmp/out.json]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flattenContent(tt.content))
		})
	}
}

func TestServerTool_Definition(t *testing.T) {
	tool := &serverTool{def: &mcp.Tool{
		Name:        "lookup_order",
		Description: "Find an order by ID",
	}}

	assert.Equal(t, "lookup_order", tool.Name())
	assert.Equal(t, "Find an order by ID", tool.Description())
}
