package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/coursekit/internal/course"
)

// Progress is called after each field is handled.
type Progress func(done, total int)

type gap struct {
	label string
	src   string
	dst   *string
}

func gaps(c *course.Course) []gap {
	var out []gap
	for wi := range c.Weeks {
		w := &c.Weeks[wi]
		for di := range w.Days {
			d := &w.Days[di]
			for ti := range d.Topics {
				t := &d.Topics[ti]
				label := fmt.Sprintf("week %d day %d topic %d", w.ID, d.ID, t.ID)
				if strings.TrimSpace(t.TitleHI) == "" && strings.TrimSpace(t.Title) != "" {
					out = append(out, gap{label + " title", t.Title, &t.TitleHI})
				}
				if strings.TrimSpace(t.BodyHI) == "" && strings.TrimSpace(t.BodyEN) != "" {
					out = append(out, gap{label + " body", t.BodyEN, &t.BodyHI})
				}
			}
		}
	}
	return out
}

// FillCourse translates every empty Hindi title and body in c in place and
// returns how many fields were filled. It stops at the first failure;
// fields filled before it are kept.
func FillCourse(ctx context.Context, c *course.Course, t Translator, progress Progress) (int, error) {
	todo := gaps(c)
	filled := 0
	for i, g := range todo {
		if err := ctx.Err(); err != nil {
			return filled, err
		}
		out, err := t.Translate(ctx, g.src, "hi")
		if err != nil {
			return filled, fmt.Errorf("translate %s: %w", g.label, err)
		}
		if out != "" {
			*g.dst = out
			filled++
		}
		if progress != nil {
			progress(i+1, len(todo))
		}
	}
	return filled, nil
}
