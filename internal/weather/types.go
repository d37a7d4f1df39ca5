package weather

import "time"

// DateLayout is the calendar date format used on the wire and in object keys.
const DateLayout = "2006-01-02"

// Variables lists the daily aggregates requested from the archive, in column order.
var Variables = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"temperature_2m_mean",
	"apparent_temperature_max",
	"apparent_temperature_min",
	"apparent_temperature_mean",
}

// Request is a validated store request.
type Request struct {
	Latitude  float64
	Longitude float64
	StartDate time.Time
	EndDate   time.Time

	// RawStartDate and RawEndDate keep the caller's strings for naming and the stored body.
	RawStartDate string
	RawEndDate   string
}

// DailyBlock is the columnar daily section of an archive response.
// Columns follow the order of Variables.
type DailyBlock struct {
	Start    time.Time
	End      time.Time
	Interval time.Duration
	Columns  [][]*float64
}

// ArchiveResponse is the decoded upstream answer for one request.
// Latitude and Longitude are the grid point the upstream resolved to.
type ArchiveResponse struct {
	Latitude  float64
	Longitude float64
	Timezone  string
	Daily     DailyBlock
}

// DailySeries is the flat daily time series stored in a record.
// A nil value means the upstream had no data for that day.
type DailySeries struct {
	Date                    []string   `json:"date"`
	Temperature2mMax        []*float64 `json:"temperature_2m_max"`
	Temperature2mMin        []*float64 `json:"temperature_2m_min"`
	Temperature2mMean       []*float64 `json:"temperature_2m_mean"`
	ApparentTemperatureMax  []*float64 `json:"apparent_temperature_max"`
	ApparentTemperatureMin  []*float64 `json:"apparent_temperature_min"`
	ApparentTemperatureMean []*float64 `json:"apparent_temperature_mean"`
}

// Record is the persisted entity.
type Record struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
	DailyData DailySeries `json:"daily_data"`
}
