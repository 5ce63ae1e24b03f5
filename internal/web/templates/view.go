// Package templates renders the BOM viewer pages. The components are
// written in the .templ files next to this one; run `templ generate` after
// editing them.
package templates

import (
	"fmt"
	"strconv"

	"github.com/JonMunkholm/bomview/internal/core"
)

// Alert is a user-facing message shown above the page content.
type Alert struct {
	Message string
	Action  string
	Code    string
}

// PageData is everything the main page needs.
type PageData struct {
	State     core.State
	Alert     *Alert
	HasSample bool
	// MaxFileSize is shown next to the upload control; 0 hides it.
	MaxFileSize int64
}

func rowAction(index int, action string) string {
	return fmt.Sprintf("/rows/%d/%s", index, action)
}

func editFormID(index int) string {
	return "edit-" + strconv.Itoa(index)
}

// inputMode picks the on-screen keyboard for a text cell.
func inputMode(key core.FieldKey) string {
	if key == core.FieldQuantity || key == core.FieldCostPerUnit {
		return "decimal"
	}
	return "text"
}

func labelFor(key core.FieldKey) string {
	for _, hd := range core.DefaultHeaders {
		if hd.Key == key {
			return hd.Label
		}
	}
	return string(key)
}

func fieldValue(r core.Row, key core.FieldKey) core.Value {
	v, _ := r.Get(key)
	return v
}

func fulfilledLabel(v core.Value) string {
	if v.Truthy() {
		return "Yes"
	}
	return "No"
}

func rowCount(shown, total int) string {
	if shown == total {
		return fmt.Sprintf("%d rows", total)
	}
	return fmt.Sprintf("%d of %d rows", shown, total)
}

func fulfilledCount(sum core.Summary) string {
	return fmt.Sprintf("%d of %d", sum.Fulfilled, sum.Rows)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
