package schemafile

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_JSONPassthrough(t *testing.T) {
	doc := `{"type":"object","properties":{"zebra":{"type":"string"},"apple":{"type":"number"}}}`
	path := writeFile(t, "schema.json", doc)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, doc, string(got), "JSON documents pass through byte for byte")
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeFile(t, "schema.json", `{"type":`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestLoad_YAMLKeepsKeyOrder(t *testing.T) {
	path := writeFile(t, "schema.yaml", `type: object
properties:
  zebra:
    type: string
  apple:
    type: number
required: [zebra]
`)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t,
		`{"type":"object","properties":{"zebra":{"type":"string"},"apple":{"type":"number"}},"required":["zebra"]}`,
		string(got))
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "schema.toml", `type = "object"`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported schema file extension")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading schema file")
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"schemas/report.yml": &fstest.MapFile{
			Data: []byte("type: string\nenum: [draft, final]\n"),
		},
	}

	got, err := LoadFS(fsys, "schemas/report.yml")
	require.NoError(t, err)
	assert.Equal(t, `{"type":"string","enum":["draft","final"]}`, string(got))
}

func TestJSONFromYAML(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "scalar types",
			yaml: "count: 3\nratio: 0.5\nstrict: true\nnothing: null\nname: box\n",
			want: `{"count":3,"ratio":0.5,"strict":true,"nothing":null,"name":"box"}`,
		},
		{
			name: "empty value is null",
			yaml: "default:\n",
			want: `{"default":null}`,
		},
		{
			name: "nested sequences",
			yaml: "anyOf:\n  - type: string\n  - type: number\n",
			want: `{"anyOf":[{"type":"string"},{"type":"number"}]}`,
		},
		{
			name: "escaped newline in double-quoted string",
			yaml: `value: "a\nb"` + "\n",
			want: `{"value":"a\nb"}`,
		},
		{
			name: "literal block keeps line breaks",
			yaml: "description: |-\n  line one\n  line two\n",
			want: `{"description":"line one\nline two"}`,
		},
		{
			name: "anchors and aliases",
			yaml: "base: &s\n  type: string\ncopy: *s\n",
			want: `{"base":{"type":"string"},"copy":{"type":"string"}}`,
		},
		{
			name: "unquoted date stays a string",
			yaml: "since: 2023-01-01\n",
			want: `{"since":"2023-01-01"}`,
		},
		{
			name: "top-level sequence",
			yaml: "- a\n- b\n",
			want: `["a","b"]`,
		},
		{
			name: "empty document",
			yaml: "",
			want: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSONFromYAML([]byte(tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestJSONFromYAML_Invalid(t *testing.T) {
	_, err := JSONFromYAML([]byte("key: [unclosed\n"))
	require.Error(t, err)
}
