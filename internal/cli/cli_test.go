package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/bomview/internal/core"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleCSV = "Name,Description,Quantity,Cost per unit,Fulfilled\n" +
	"Resistor,10k,100,0.01,true\n" +
	"Capacitor,100nF,50,0.02,false\n" +
	"Resistor array,4x10k,10,0.5,no\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestShow_Table(t *testing.T) {
	path := writeFile(t, "bom.csv", sampleCSV)

	out, _, err := run(t, "", "show", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	require.Contains(t, lines[0], "Cost per unit")
	require.True(t, strings.HasPrefix(lines[2], "1 "), "row lines start with the table index: %q", lines[2])
}

func TestShow_SearchKeepsTableIndices(t *testing.T) {
	path := writeFile(t, "bom.csv", sampleCSV)

	out, _, err := run(t, "", "show", path, "--search", "RESISTOR", "-o", "json")
	require.NoError(t, err)

	var rows []core.IndexedRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	require.Equal(t, 0, rows[0].Index)
	require.Equal(t, 2, rows[1].Index)
	require.Equal(t, core.TextValue("Resistor array"), rows[1].Row.Name)
}

func TestShow_YAML(t *testing.T) {
	path := writeFile(t, "bom.csv", sampleCSV)

	out, _, err := run(t, "", "show", path, "-o", "yaml", "-s", "cap")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	row, ok := rows[0]["row"].(map[string]any)
	require.True(t, ok, "row should be a mapping: %v", rows[0])
	require.Equal(t, "Capacitor", row["name"])
}

func TestShow_CSV(t *testing.T) {
	path := writeFile(t, "bom.csv", sampleCSV)

	out, _, err := run(t, "", "show", path, "-o", "csv", "-s", "capacitor")
	require.NoError(t, err)
	require.Equal(t, "Name,Description,Quantity,Cost per unit,Fulfilled\nCapacitor,100nF,50,0.02,false\n", out)
}

func TestShow_UnknownFormat(t *testing.T) {
	path := writeFile(t, "bom.csv", sampleCSV)

	_, _, err := run(t, "", "show", path, "-o", "xml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown output format")
}

func TestShow_Stdin(t *testing.T) {
	out, _, err := run(t, sampleCSV, "show", "-", "-o", "csv")
	require.NoError(t, err)
	require.Equal(t, sampleCSV, out)
}

func TestShow_MissingFile(t *testing.T) {
	_, _, err := run(t, "", "show", filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestShow_InvalidCSV(t *testing.T) {
	path := writeFile(t, "bad.csv", "name\n\"open\n")

	_, _, err := run(t, "", "show", path)
	require.ErrorIs(t, err, core.ErrInvalidCSV)
}

func TestExport_NormalizesHeaders(t *testing.T) {
	in := writeFile(t, "keys.csv", "fulfilled,name,quantity,junk\nyes,Bolt,4,x\n")
	out := filepath.Join(t.TempDir(), "out.csv")

	_, stderr, err := run(t, "", "export", in, "-o", out)
	require.NoError(t, err)
	require.Contains(t, stderr, "ignoring unknown columns")

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "Name,Description,Quantity,Cost per unit,Fulfilled\nBolt,,4,,yes\n", string(got))
}

func TestExport_RoundTrip(t *testing.T) {
	in := writeFile(t, "bom.csv", sampleCSV)

	out, _, err := run(t, "", "export", in)
	require.NoError(t, err)
	require.Equal(t, sampleCSV, out)
}

func TestSummary(t *testing.T) {
	path := writeFile(t, "bom.csv", sampleCSV)

	out, _, err := run(t, "", "summary", path, "-o", "json")
	require.NoError(t, err)

	var s core.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	require.Equal(t, 3, s.Rows)
	require.Equal(t, 1, s.Fulfilled)
	require.InDelta(t, 160, s.TotalQuantity, 1e-9)
	require.InDelta(t, 7, s.TotalCost, 1e-9)
}

func TestSummary_Table(t *testing.T) {
	path := writeFile(t, "bom.csv", sampleCSV)

	out, _, err := run(t, "", "summary", path)
	require.NoError(t, err)
	require.Contains(t, out, "Total quantity")
	require.Contains(t, out, "160")
}

func TestApply(t *testing.T) {
	in := writeFile(t, "bom.csv", sampleCSV)
	events := writeFile(t, "events.json", `[
		{"type":"delete","index":1},
		{"type":"begin_edit","index":0},
		{"type":"change_field","key":"quantity","value":120},
		{"type":"save"},
		{"type":"change_field","key":"name","value":"Diode"},
		{"type":"add"}
	]`)

	out, _, err := run(t, "", "apply", in, "--events", events)
	require.NoError(t, err)
	require.Equal(t, "Name,Description,Quantity,Cost per unit,Fulfilled\n"+
		"Resistor,10k,120,0.01,true\n"+
		"Resistor array,4x10k,10,0.5,no\n"+
		"Diode,,0,0,false\n", out)
}

func TestApply_FailureWritesNothing(t *testing.T) {
	in := writeFile(t, "bom.csv", sampleCSV)
	events := writeFile(t, "events.json", `[{"type":"delete","index":0},{"type":"delete","index":9}]`)
	out := filepath.Join(t.TempDir(), "out.csv")

	_, _, err := run(t, "", "apply", in, "--events", events, "-o", out)
	require.ErrorIs(t, err, core.ErrIndexOutOfRange)
	require.Contains(t, err.Error(), "event 1 (delete)")

	_, statErr := os.Stat(out)
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestApply_RequiresEvents(t *testing.T) {
	in := writeFile(t, "bom.csv", sampleCSV)

	_, _, err := run(t, "", "apply", in)
	require.Error(t, err)
}

func TestDebugFlagLogs(t *testing.T) {
	path := writeFile(t, "bom.csv", sampleCSV)

	_, stderr, err := run(t, "", "--debug", "show", path)
	require.NoError(t, err)
	require.Contains(t, stderr, "decoded table")
	require.Contains(t, stderr, `"command":"show"`)

	_, stderr, err = run(t, "", "show", path)
	require.NoError(t, err)
	require.NotContains(t, stderr, "decoded table")
}

func TestOutputFormatFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    outputFormat
		wantErr bool
	}{
		{"table", formatTable, false},
		{"JSON", formatJSON, false},
		{" yaml ", formatYAML, false},
		{"csv", formatCSV, false},
		{"toml", "", true},
	}
	for _, tt := range tests {
		var f outputFormat
		err := f.Set(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, f)
	}
}
