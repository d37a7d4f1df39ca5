package openmeteo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/neexbeast/weather-archive/internal/weather"
)

type archivePayload struct {
	Latitude             float64                    `json:"latitude"`
	Longitude            float64                    `json:"longitude"`
	UTCOffsetSeconds     int                        `json:"utc_offset_seconds"`
	Timezone             string                     `json:"timezone"`
	TimezoneAbbreviation string                     `json:"timezone_abbreviation"`
	Daily                map[string]json.RawMessage `json:"daily"`
}

// decode turns an archive body into an ArchiveResponse whose daily block covers
// [local midnight of start_date, local midnight of end_date). The archive treats
// end_date as inclusive, so surplus trailing values are dropped here.
func decode(body []byte, req weather.Request) (*weather.ArchiveResponse, error) {
	var p archivePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: decoding archive payload: %v", weather.ErrUpstreamUnavailable, err)
	}
	if p.Daily == nil {
		return nil, fmt.Errorf("%w: archive payload has no daily block", weather.ErrUpstreamUnavailable)
	}

	loc := time.FixedZone(p.TimezoneAbbreviation, p.UTCOffsetSeconds)
	start := localMidnight(req.StartDate, loc)
	end := localMidnight(req.EndDate, loc)
	days := int(end.Sub(start) / (24 * time.Hour))

	columns := make([][]*float64, len(weather.Variables))
	for i, name := range weather.Variables {
		raw, ok := p.Daily[name]
		if !ok {
			return nil, fmt.Errorf("%w: daily block lacks %s", weather.ErrMalformedUpstreamData, name)
		}
		var col []*float64
		if err := json.Unmarshal(raw, &col); err != nil {
			return nil, fmt.Errorf("%w: decoding %s: %v", weather.ErrMalformedUpstreamData, name, err)
		}
		if len(col) > days {
			col = col[:days]
		}
		columns[i] = col
	}

	return &weather.ArchiveResponse{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Timezone:  p.Timezone,
		Daily: weather.DailyBlock{
			Start:    start,
			End:      end,
			Interval: 24 * time.Hour,
			Columns:  columns,
		},
	}, nil
}

func localMidnight(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}
