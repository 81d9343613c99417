package settings

import "time"

// Streak counts consecutive calendar days ending today on which at least one
// task was completed, walking backward through the completion log until the
// first gap. A day that completed nothing yields 0 even if yesterday ended a
// long run: the streak is alive only through today's entry.
func Streak(log []string, today time.Time) int {
	if len(log) == 0 {
		return 0
	}
	days := make(map[string]bool, len(log))
	for _, d := range log {
		days[d] = true
	}
	streak := 0
	cur := today
	for days[cur.Format("2006-01-02")] {
		streak++
		cur = cur.AddDate(0, 0, -1)
	}
	return streak
}
