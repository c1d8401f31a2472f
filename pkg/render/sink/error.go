package sink

import (
	"bytes"
	"fmt"
)

const (
	errorWidth  = 800.0
	errorHeight = 600.0
)

// RenderError draws the surface shown instead of the graph when the dataset
// could not be loaded. Non-positive dimensions fall back to 800x600.
func RenderError(msg string, width, height float64) []byte {
	if width <= 0 || height <= 0 {
		width, height = errorWidth, errorHeight
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" class="contribnet error">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="#fdf2f2"/>`+"\n", width, height)
	fmt.Fprintf(&buf, `  <text class="error-title" x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="20" font-weight="bold" fill="#c0392b">Unable to load contributions</text>`+"\n",
		width/2, height/2-12)
	fmt.Fprintf(&buf, `  <text class="error-message" x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#7f8c8d">%s</text>`+"\n",
		width/2, height/2+16, escapeXML(msg))
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}
