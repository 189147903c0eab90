package widgets

import (
	"strings"

	"github.com/abhisek/coursekit/internal/view"
)

// DefaultTickerID is the ticker container id.
const DefaultTickerID = "ticker"

// tickerGap separates items in the marquee.
const tickerGap = "      "

// TickerContent is the content of the ticker element. Items holds the
// list twice so the marquee can wrap seamlessly.
type TickerContent struct {
	Items []string
}

// RenderTicker fills the ticker container.
func RenderTicker(b *view.Board, items []string, containerID string) bool {
	if containerID == "" {
		containerID = DefaultTickerID
	}
	el, ok := b.Lookup(containerID)
	if !ok {
		return false
	}
	doubled := make([]string, 0, 2*len(items))
	doubled = append(doubled, items...)
	doubled = append(doubled, items...)
	el.SetContent(TickerContent{Items: doubled})
	return true
}

// Frame returns width cells of the marquee scrolled by tick positions.
func (c TickerContent) Frame(width, tick int) string {
	if width <= 0 || len(c.Items) == 0 {
		return ""
	}
	loop := []rune(strings.Join(c.Items, tickerGap) + tickerGap)
	n := len(loop)
	start := tick % n
	if start < 0 {
		start += n
	}
	out := make([]rune, width)
	for i := range out {
		out[i] = loop[(start+i)%n]
	}
	return string(out)
}
