package renderer

import (
	"bytes"
	"io"

	"github.com/etnz/diary"
)

// ConditionalBlock let you fully write a block and decide at the end to print it or not.
// If the block function returns true, the content is printed to w, otherwise it is discarded.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	bw := &bytes.Buffer{}
	if block(bw) {
		io.Copy(w, bw)
	}
}

// optional formats a date, or "-" when absent.
func optional[T interface {
	IsZero() bool
	String() string
}](v T) string {
	if v.IsZero() {
		return "-"
	}
	return v.String()
}

// exitPrice formats the exit price of p, or "-" when absent.
func exitPrice(p diary.Position) string {
	if !p.HasExitPrice() {
		return "-"
	}
	return p.ExitPrice.String()
}
