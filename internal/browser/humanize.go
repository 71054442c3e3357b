package browser

import (
	"context"
	"math/rand/v2"
	"time"
)

// Humanize adds a few mouse moves and a short scroll so the session does not
// look like an instant headless fetch.
func Humanize(ctx context.Context, page Page) error {
	for i := 0; i < 3; i++ {
		x := float64(100+i*200) + rand.Float64()*40
		y := float64(100+i*150) + rand.Float64()*40
		if err := page.MouseMove(x, y); err != nil {
			return err
		}
		if err := Sleep(ctx, time.Millisecond*time.Duration(200+i*100)); err != nil {
			return err
		}
	}

	if err := page.Scroll(100 + rand.Float64()*200); err != nil {
		return err
	}
	return Sleep(ctx, time.Second)
}
