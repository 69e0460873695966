// Package table renders pterm tables for command output.
package table

import (
	"github.com/pterm/pterm"
)

// PrintTableNoPad prints rows as a boxed table. When hasHeader is true the
// first row is styled as the header.
func PrintTableNoPad(rows pterm.TableData, hasHeader bool) {
	if len(rows) == 0 {
		return
	}
	_ = pterm.DefaultTable.
		WithHasHeader(hasHeader).
		WithBoxed(true).
		WithData(rows).
		Render()
}
