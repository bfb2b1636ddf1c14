package dataprocessing

import (
	"log/slog"
	"time"

	"spooker/pkg/contracts/domain"
)

// Reconstructor turns day-start baselines and interval deltas into the
// hour-aligned running-total statistics the recorder imports.
type Reconstructor struct {
	offset string
	logger *slog.Logger
}

// NewReconstructor creates a reconstructor emitting start strings with
// the given fixed UTC offset suffix, e.g. "+02:00".
func NewReconstructor(offset string, logger *slog.Logger) *Reconstructor {
	return &Reconstructor{offset: offset, logger: logger}
}

// HourlyStatistics walks one direction's data day by day. Each day's
// running total is anchored to that day's own baseline; the baseline is
// the pre-increment value, so a point at an hour boundary is emitted
// before that interval's delta is added. Totals are not reset between
// days; a baseline that disagrees with the carried-over total is
// absorbed silently at the day boundary, matching the exports' quirks.
// Negative deltas pass through unclamped, so the running total can
// transiently fall.
//
// Days with a baseline but no deltas, or deltas but no baseline,
// contribute no points; data is never fabricated.
func (r *Reconstructor) HourlyStatistics(baselines, deltas domain.Series, direction domain.Direction) []domain.StatisticsPoint {
	if len(baselines) == 0 {
		return r.hourlyOnly(deltas, direction)
	}

	base := make(domain.Series, len(baselines))
	copy(base, baselines)
	base.Sort()

	byDay := make(map[time.Time]domain.Series)
	ordered := make(domain.Series, len(deltas))
	copy(ordered, deltas)
	ordered.Sort()
	for _, d := range ordered {
		day := civilDate(d.Timestamp)
		byDay[day] = append(byDay[day], d)
	}

	var points []domain.StatisticsPoint
	for _, b := range base {
		day := civilDate(b.Timestamp)
		dayDeltas, ok := byDay[day]
		if !ok {
			r.logger.Warn("no interval data for baseline day, skipping",
				slog.String("direction", string(direction)),
				slog.Time("date", day))
			continue
		}

		running := b.Value
		for _, d := range dayDeltas {
			if d.Timestamp.Minute() == 0 {
				points = append(points, domain.NewStatisticsPoint(d.Timestamp, r.offset, round3(running)))
			}
			running += d.Value
		}
		delete(byDay, day)
	}

	for day := range byDay {
		r.logger.Warn("interval data without a baseline day, skipping",
			slog.String("direction", string(direction)),
			slog.Time("date", day))
	}

	r.logger.Info("reconstructed hourly statistics",
		slog.String("direction", string(direction)),
		slog.Int("points", len(points)))
	return points
}

// hourlyOnly is the fallback when no baselines exist at all: the running
// total starts at zero and every delta is accumulated, emitting at hour
// boundaries after the boundary delta is applied.
func (r *Reconstructor) hourlyOnly(deltas domain.Series, direction domain.Direction) []domain.StatisticsPoint {
	if len(deltas) == 0 {
		r.logger.Warn("no data to reconstruct", slog.String("direction", string(direction)))
		return nil
	}

	ordered := make(domain.Series, len(deltas))
	copy(ordered, deltas)
	ordered.Sort()

	var points []domain.StatisticsPoint
	running := 0.0
	for _, d := range ordered {
		running += d.Value
		if d.Timestamp.Minute() == 0 {
			points = append(points, domain.NewStatisticsPoint(d.Timestamp, r.offset, round3(running)))
		}
	}

	r.logger.Info("reconstructed hourly statistics without baselines",
		slog.String("direction", string(direction)),
		slog.Int("points", len(points)))
	return points
}

// DistributeBaselines spreads each day's consumption evenly across its
// 24 hours, for cumulative-only inputs with no companion interval file.
// The running total starts from the first day's absolute register.
func (r *Reconstructor) DistributeBaselines(baselines []domain.DailyBaseline, direction domain.Direction) []domain.StatisticsPoint {
	if len(baselines) < 2 {
		r.logger.Warn("not enough baselines to distribute",
			slog.String("direction", string(direction)),
			slog.Int("days", len(baselines)))
		return nil
	}

	register := func(b domain.DailyBaseline) float64 {
		if direction == domain.DirectionExport {
			return b.Export
		}
		return b.Import
	}

	var points []domain.StatisticsPoint
	running := register(baselines[0])
	for i := 1; i < len(baselines); i++ {
		daily := register(baselines[i]) - register(baselines[i-1])
		if daily < 0 {
			daily = 0
		}
		share := daily / 24

		for hour := 0; hour < 24; hour++ {
			ts := baselines[i].Date.Add(time.Duration(hour) * time.Hour)
			running += share
			points = append(points, domain.NewStatisticsPoint(ts, r.offset, round3(running)))
		}
	}

	r.logger.Info("distributed baseline consumption across hours",
		slog.String("direction", string(direction)),
		slog.Int("points", len(points)))
	return points
}

// ConsumptionFromBaselines derives the daily-total view by subtracting
// consecutive registers. Negative differences (meter glitches) are
// clamped to zero here, and only here; the hour-by-hour walk above
// passes them through.
func ConsumptionFromBaselines(baselines []domain.DailyBaseline, direction domain.Direction) domain.Series {
	register := func(b domain.DailyBaseline) float64 {
		if direction == domain.DirectionExport {
			return b.Export
		}
		return b.Import
	}

	var out domain.Series
	for i := 1; i < len(baselines); i++ {
		diff := register(baselines[i]) - register(baselines[i-1])
		if diff < 0 {
			diff = 0
		}
		out = append(out, domain.Reading{
			Timestamp: baselines[i].Date,
			Value:     round3(diff),
		})
	}
	return out
}
