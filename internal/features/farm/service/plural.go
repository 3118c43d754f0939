package service

import (
	"fmt"
	"strings"
	"time"
)

// pluralRu picks the Russian plural form for n.
func pluralRu(n int, one, few, many string) string {
	if n%100 >= 11 && n%100 <= 14 {
		return many
	}
	switch n % 10 {
	case 1:
		return one
	case 2, 3, 4:
		return few
	default:
		return many
	}
}

// formatCooldown renders a remaining duration in whole hours and minutes,
// rounding up to the next minute so the user never sees "0 минут" for a
// few leftover seconds.
func formatCooldown(d time.Duration) string {
	minutes := int((d + time.Minute - 1) / time.Minute)
	hours := minutes / 60
	minutes %= 60

	parts := make([]string, 0, 2)
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", hours, pluralRu(hours, "час", "часа", "часов")))
	}
	if minutes > 0 || hours == 0 {
		parts = append(parts, fmt.Sprintf("%d %s", minutes, pluralRu(minutes, "минута", "минуты", "минут")))
	}
	return strings.Join(parts, " ")
}
