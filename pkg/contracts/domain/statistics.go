package domain

import (
	"fmt"
	"time"
)

// StatisticsPoint is one record of the long-term statistics schema the
// Home Assistant recorder imports: a top-of-hour start time with the
// running cumulative total. State and Sum always carry the same value;
// there is no separate mean tracking.
type StatisticsPoint struct {
	Start string  `yaml:"start" json:"start"`
	State float64 `yaml:"state" json:"state"`
	Sum   float64 `yaml:"sum" json:"sum"`
}

// StatisticsTimeLayout is the local-time portion of a statistics start
// string. The fixed UTC offset is appended separately.
const StatisticsTimeLayout = "2006-01-02 15:04:05"

// NewStatisticsPoint formats a point for the given instant, fixed offset
// suffix (e.g. "+02:00") and running total.
func NewStatisticsPoint(ts time.Time, offset string, total float64) StatisticsPoint {
	return StatisticsPoint{
		Start: fmt.Sprintf("%s%s", ts.Format(StatisticsTimeLayout), offset),
		State: total,
		Sum:   total,
	}
}
