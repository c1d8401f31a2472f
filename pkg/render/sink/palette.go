package sink

// Set3 is d3's schemeSet3, the default category palette.
var Set3 = []string{
	"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3", "#fdb462",
	"#b3de69", "#fccde5", "#d9d9d9", "#bc80bd", "#ccebc5", "#ffed6f",
}

// TopicColor fills topic nodes and uncategorized contributors.
const TopicColor = "#95a5a6"

// Palette assigns colors to categories by their legend position.
type Palette []string

// Color returns the color for the category at index i. Negative indices and
// an empty palette fall back to [TopicColor]; indices past the end wrap.
func (p Palette) Color(i int) string {
	if i < 0 || len(p) == 0 {
		return TopicColor
	}
	return p[i%len(p)]
}
