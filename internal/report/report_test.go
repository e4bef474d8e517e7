package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleExports(mode Mode) *ExportsReport {
	return &ExportsReport{
		RunID: "run-1",
		Glob:  "./src/**/*.ts",
		Mode:  mode,
		Unused: []ExportEntry{
			{File: "./src/a.ts", Line: 3, Kind: "Function", Name: "g"},
			{File: "./src/b.ts", Line: 1, Kind: "Variable", Name: "limit"},
		},
		Summary: ExportSummary{Files: 2, Symbols: 1234, Unused: 2, Unresolvable: 1},
	}
}

func render(t *testing.T, format Format, fn func(*Renderer) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, fn(NewRenderer(&buf, format, true)))
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestExports_Table(t *testing.T) {
	t.Run("report", func(t *testing.T) {
		out := render(t, FormatTable, func(r *Renderer) error { return r.Exports(sampleExports(ModeReport)) })
		assert.Contains(t, out, "The following exports have no external references and the export keyword can be removed:")
		assert.Contains(t, out, "Pass the --fix flag to remove unused exports")
		for _, s := range []string{"File", "Line", "Type", "Name", "./src/a.ts", "Function", "limit"} {
			assert.Contains(t, out, s)
		}
		assert.Contains(t, out, "Checked 1,234 exports in 2 files, 2 unused (1 skipped as unresolvable, 0 excluded)")
	})

	t.Run("nothing unused", func(t *testing.T) {
		rep := sampleExports(ModeReport)
		rep.Unused = nil
		out := render(t, FormatTable, func(r *Renderer) error { return r.Exports(rep) })
		assert.True(t, strings.HasPrefix(out, "No unused exports found\n"))
		assert.NotContains(t, out, "--fix")
	})

	t.Run("fix", func(t *testing.T) {
		out := render(t, FormatTable, func(r *Renderer) error { return r.Exports(sampleExports(ModeFix)) })
		assert.Contains(t, out, "The following exports have been removed:")
		assert.Contains(t, out, "You have no unused exports now!")
	})

	t.Run("fix with kept exports", func(t *testing.T) {
		rep := sampleExports(ModeFix)
		rep.Kept = []ExportEntry{rep.Unused[1]}
		out := render(t, FormatTable, func(r *Renderer) error { return r.Exports(rep) })
		assert.Contains(t, out, "could not be removed safely")
		assert.NotContains(t, out, "You have no unused exports now!")
		assert.Len(t, removed(rep), 1)
	})

	t.Run("dry run", func(t *testing.T) {
		out := render(t, FormatTable, func(r *Renderer) error { return r.Exports(sampleExports(ModeDryRun)) })
		assert.Contains(t, out, "would have their export keyword removed")
		assert.Contains(t, out, "without --dry-run")
	})
}

func TestExports_JSON(t *testing.T) {
	out := render(t, FormatJSON, func(r *Renderer) error { return r.Exports(sampleExports(ModeReport)) })

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "run-1", decoded["runId"])
	assert.Equal(t, "report", decoded["mode"])
	assert.NotContains(t, decoded, "kept", "empty lists are omitted")

	unused := decoded["unused"].([]any)
	require.Len(t, unused, 2)
	first := unused[0].(map[string]any)
	assert.Equal(t, "g", first["name"])
	assert.Equal(t, "Function", first["type"])
	assert.Equal(t, float64(3), first["line"])

	again := render(t, FormatJSON, func(r *Renderer) error { return r.Exports(sampleExports(ModeReport)) })
	assert.Equal(t, out, again)
}

func TestExports_YAML(t *testing.T) {
	out := render(t, FormatYAML, func(r *Renderer) error { return r.Exports(sampleExports(ModeFix)) })

	var decoded ExportsReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, sampleExports(ModeFix), &decoded)
}

func TestConsole_Table(t *testing.T) {
	rep := &ConsoleReport{
		Glob: "./src/**/*.ts",
		Mode: ModeReport,
		Statements: []ConsoleEntry{
			{File: "./src/a.ts", Line: 4, Statement: "console.log"},
		},
	}
	out := render(t, FormatTable, func(r *Renderer) error { return r.Console(rep) })
	assert.Contains(t, out, "Found 1 console statement:")
	assert.Contains(t, out, "Statement")
	assert.Contains(t, out, "console.log")
	assert.Contains(t, out, "Pass the --fix flag to remove all console statements")

	rep.Mode = ModeFix
	out = render(t, FormatTable, func(r *Renderer) error { return r.Console(rep) })
	assert.Contains(t, out, "Removed 1 console statement:")

	rep.Statements = nil
	out = render(t, FormatTable, func(r *Renderer) error { return r.Console(rep) })
	assert.Equal(t, "Congratulations! You have no console statements in ./src/**/*.ts\n", out)
}

func TestSortExports(t *testing.T) {
	entries := []ExportEntry{
		{File: "./b.ts", Line: 1, Name: "x"},
		{File: "./a.ts", Line: 9, Name: "z"},
		{File: "./a.ts", Line: 2, Name: "y"},
		{File: "./a.ts", Line: 2, Name: "w"},
	}
	SortExports(entries)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"w", "y", "z", "x"}, names)
}

func TestEncodeJSON_OmitsNil(t *testing.T) {
	type inner struct {
		A string `json:"a,omitempty"`
		B int    `json:"b"`
	}
	data, err := encodeJSON(struct {
		Z     *inner         `json:"z"`
		Items []inner        `json:"items"`
		M     map[string]int `json:"m"`
		Skip  string         `json:"-"`
	}{Items: []inner{{B: 1}}, Skip: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"b":1}]}`, string(data))
}
