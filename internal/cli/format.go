package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/bomview/internal/core"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// outputFormat is the --output flag value.
type outputFormat string

const (
	formatTable outputFormat = "table"
	formatCSV   outputFormat = "csv"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

var outputFormats = []outputFormat{formatTable, formatCSV, formatJSON, formatYAML}

var _ pflag.Value = (*outputFormat)(nil)

func (f *outputFormat) String() string { return string(*f) }

// Set validates and stores the format name.
func (f *outputFormat) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, known := range outputFormats {
		if s == string(known) {
			*f = known
			return nil
		}
	}
	return fmt.Errorf("unknown output format %q (want table|csv|json|yaml)", s)
}

func (f *outputFormat) Type() string { return "format" }

// writeRows renders rows in the given format. Table output prefixes each
// row with its index in the full table.
func writeRows(w io.Writer, format outputFormat, rows []core.IndexedRow) error {
	switch format {
	case formatCSV:
		plain := make([]core.Row, len(rows))
		for i, r := range rows {
			plain[i] = r.Row
		}
		return core.Encode(w, plain, core.DefaultHeaders)

	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)

	case formatYAML:
		return writeYAML(w, rows)

	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprint(tw, "#")
		for _, h := range core.DefaultHeaders {
			fmt.Fprintf(tw, "\t%s", h.Label)
		}
		fmt.Fprintln(tw)
		for _, r := range rows {
			fmt.Fprintf(tw, "%d", r.Index)
			for _, key := range core.Fields {
				v, _ := r.Row.Get(key)
				fmt.Fprintf(tw, "\t%s", v.String())
			}
			fmt.Fprintln(tw)
		}
		return tw.Flush()
	}
}

// writeSummary renders table totals in the given format.
func writeSummary(w io.Writer, format outputFormat, s core.Summary) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case formatYAML:
		return writeYAML(w, s)
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Rows\t%d\n", s.Rows)
		fmt.Fprintf(tw, "Fulfilled\t%d\n", s.Fulfilled)
		fmt.Fprintf(tw, "Total quantity\t%s\n", formatFloat(s.TotalQuantity))
		fmt.Fprintf(tw, "Total cost\t%s\n", formatFloat(s.TotalCost))
		if s.Unparsed > 0 {
			fmt.Fprintf(tw, "Rows with non-numeric cells\t%d\n", s.Unparsed)
		}
		return tw.Flush()
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func formatFloat(f float64) string {
	return core.NumberValue(f).String()
}
