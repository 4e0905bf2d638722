package update

import (
	"time"

	"github.com/sandeepkv93/routined/internal/config"
	"github.com/sandeepkv93/routined/internal/model"
)

func formatClock(now time.Time, format string) string {
	if format == config.TimeFormat12h {
		return now.Format("Mon Jan 2  3:04:05 PM")
	}
	return now.Format("Mon Jan 2  15:04:05")
}

// formatAlarmTime renders a stored "HH:MM" in the configured clock style.
func formatAlarmTime(hhmm, format string) string {
	if format != config.TimeFormat12h {
		return hhmm
	}
	hour, minute, err := model.ParseAlarmTime(hhmm)
	if err != nil {
		return hhmm
	}
	return time.Date(2000, 1, 1, hour, minute, 0, 0, time.UTC).Format("3:04 PM")
}
