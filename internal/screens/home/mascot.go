package home

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursekit/internal/ui/theme"
)

// MascotVariant selects which truck art to display.
type MascotVariant int

const (
	MascotIdle        MascotVariant = iota // nothing finished yet
	MascotRolling                          // some progress
	MascotCelebrating                      // a week is complete
)

const mascotIdle = `  ______________
 |  EAGLE  |  |_\
 |_________|____|
   (o)      (o)`

const mascotRolling = `  ______________
 |  EAGLE  |  |_\  ≡≡
 |_________|____|  ≡≡
   (o)      (o)`

const mascotCelebrating = `  ★ ______________ ★
   |  EAGLE  |  |_\
   |_________|____|
     (o)      (o)`

// mascotFor picks the art from the best week completion.
func mascotFor(bestPct int) MascotVariant {
	switch {
	case bestPct >= 100:
		return MascotCelebrating
	case bestPct > 0:
		return MascotRolling
	default:
		return MascotIdle
	}
}

// RenderMascot returns the truck art for the given variant.
func RenderMascot(v MascotVariant) string {
	art, fg := mascotIdle, theme.Primary
	switch v {
	case MascotRolling:
		art, fg = mascotRolling, theme.ArcadeCyan
	case MascotCelebrating:
		art, fg = mascotCelebrating, theme.ArcadeYellow
	}
	return lipgloss.NewStyle().Foreground(fg).Render(art)
}
