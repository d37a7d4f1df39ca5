package weather

import "fmt"

// Reshape turns the upstream's columnar daily block into a DailySeries.
// Dates run from block.Start (inclusive) to block.End (exclusive), formatted
// in the block's own location.
func Reshape(block DailyBlock) (DailySeries, error) {
	if block.Interval <= 0 {
		return DailySeries{}, fmt.Errorf("%w: non-positive interval %s", ErrMalformedUpstreamData, block.Interval)
	}
	if len(block.Columns) != len(Variables) {
		return DailySeries{}, fmt.Errorf("%w: expected %d columns, got %d",
			ErrMalformedUpstreamData, len(Variables), len(block.Columns))
	}

	dates := make([]string, 0)
	for t := block.Start; t.Before(block.End); t = t.Add(block.Interval) {
		dates = append(dates, t.Format(DateLayout))
	}

	for i, col := range block.Columns {
		if len(col) != len(dates) {
			return DailySeries{}, fmt.Errorf("%w: column %s has %d values for %d dates",
				ErrMalformedUpstreamData, Variables[i], len(col), len(dates))
		}
	}

	return DailySeries{
		Date:                    dates,
		Temperature2mMax:        copyColumn(block.Columns[0]),
		Temperature2mMin:        copyColumn(block.Columns[1]),
		Temperature2mMean:       copyColumn(block.Columns[2]),
		ApparentTemperatureMax:  copyColumn(block.Columns[3]),
		ApparentTemperatureMin:  copyColumn(block.Columns[4]),
		ApparentTemperatureMean: copyColumn(block.Columns[5]),
	}, nil
}

func copyColumn(col []*float64) []*float64 {
	out := make([]*float64, len(col))
	copy(out, col)
	return out
}
