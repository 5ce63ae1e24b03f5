package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/bomview/internal/core"
	"github.com/spf13/cobra"
)

func newShowCommand() *cobra.Command {
	var (
		search string
		format = formatTable
	)
	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print the rows of a BOM, optionally filtered by name",
		Example: "  bomctl show bom.csv\n" +
			"  bomctl show bom.csv --search resistor -o json",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := readTable(cmd, args[0])
			if err != nil {
				return err
			}
			if state, err = core.Reduce(state, core.Search{Term: search}); err != nil {
				return err
			}
			return writeRows(cmd.OutOrStdout(), format, state.View())
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "show only rows whose name contains this text (case-insensitive)")
	cmd.Flags().VarP(&format, "output", "o", "output format: table|csv|json|yaml")
	return cmd
}

func newExportCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Rewrite a BOM with the standard header row",
		Long:  "export reads FILE, accepting column keys or labels in any order, and writes every row\nwith the header Name,Description,Quantity,Cost per unit,Fulfilled.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := readTable(cmd, args[0])
			if err != nil {
				return err
			}
			return writeTable(cmd, out, state.Table)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newSummaryCommand() *cobra.Command {
	format := formatTable
	cmd := &cobra.Command{
		Use:   "summary FILE",
		Short: "Print row, quantity and cost totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := readTable(cmd, args[0])
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), format, core.Summarize(state.Table))
		},
	}
	cmd.Flags().VarP(&format, "output", "o", "output format: table|json|yaml")
	return cmd
}

func newApplyCommand() *cobra.Command {
	var (
		eventsPath string
		out        string
	)
	cmd := &cobra.Command{
		Use:   "apply FILE --events EVENTS.json",
		Short: "Apply a JSON list of edit events to a BOM and write the result",
		Long: "apply reads a JSON array of events, the same ones accepted by POST /api/events, e.g.\n" +
			`  [{"type":"begin_edit","index":0},{"type":"change_field","key":"quantity","value":12},{"type":"save"}]` +
			"\nThe events are applied in order; if any fails nothing is written.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := loggerFrom(cmd.Context())

			raw, err := os.ReadFile(eventsPath)
			if err != nil {
				return err
			}
			events, err := decodeEventList(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", eventsPath, err)
			}

			state, err := readTable(cmd, args[0])
			if err != nil {
				return err
			}
			for i, ev := range events {
				if state, err = core.Reduce(state, ev); err != nil {
					return fmt.Errorf("event %d (%s): %w", i, ev.Name(), err)
				}
				log.V(1).Info("applied event", "index", i, "type", ev.Name())
			}
			if state.Editing() {
				log.Info("a row was left open for editing; its changes are kept", "row", state.Cursor.Index)
			}

			return writeTable(cmd, out, state.Table)
		},
	}
	cmd.Flags().StringVarP(&eventsPath, "events", "e", "", "JSON file with an array of events")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("events")
	return cmd
}

// decodeEventList parses a JSON array of events.
func decodeEventList(raw []byte) ([]core.Event, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidEvent, err)
	}
	events := make([]core.Event, 0, len(items))
	for i, item := range items {
		ev, err := core.DecodeEvent(item)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// writeTable encodes rows as CSV into out ("" for stdout).
func writeTable(cmd *cobra.Command, out string, rows []core.Row) error {
	// Encode fully before touching the destination so a failure leaves it intact.
	var buf bytes.Buffer
	if err := core.Encode(&buf, rows, core.DefaultHeaders); err != nil {
		return err
	}

	w, closeFn, err := createOutput(cmd, out)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, &buf); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}

	loggerFrom(cmd.Context()).V(1).Info("wrote table", "rows", len(rows), "out", out)
	return nil
}
