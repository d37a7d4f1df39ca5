package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// StoreInput is the raw store-weather-data body after coercion to strings.
type StoreInput struct {
	Latitude  string `json:"latitude" validate:"required"`
	Longitude string `json:"longitude" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var requiredFields = []string{"latitude", "longitude", "start_date", "end_date"}

// ParseInput coerces a decoded JSON object into a StoreInput.
// Coordinates may arrive as JSON numbers or numeric strings. Absent, null and
// blank fields are reported as ErrMissingParameter before any type check, so
// a missing field always wins over a badly typed one.
func ParseInput(body map[string]any) (StoreInput, error) {
	if missing := missingFields(body); len(missing) > 0 {
		return StoreInput{}, fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(missing, ", "))
	}

	var in StoreInput
	var err error

	if in.Latitude, err = numberField(body, "latitude"); err != nil {
		return StoreInput{}, err
	}
	if in.Longitude, err = numberField(body, "longitude"); err != nil {
		return StoreInput{}, err
	}
	if in.StartDate, err = dateField(body, "start_date"); err != nil {
		return StoreInput{}, err
	}
	if in.EndDate, err = dateField(body, "end_date"); err != nil {
		return StoreInput{}, err
	}
	return in, nil
}

func missingFields(body map[string]any) []string {
	var missing []string
	for _, name := range requiredFields {
		switch v := body[name].(type) {
		case nil:
			missing = append(missing, name)
		case string:
			if strings.TrimSpace(v) == "" {
				missing = append(missing, name)
			}
		}
	}
	return missing
}

func numberField(body map[string]any, name string) (string, error) {
	switch v := body[name].(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: %s must be a number", ErrInvalidNumber, name)
	}
}

func dateField(body map[string]any, name string) (string, error) {
	switch v := body[name].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %s must be a YYYY-MM-DD string", ErrInvalidDate, name)
	}
}

// Validate checks a StoreInput and converts it into a Request.
// Checks run in order: presence, coordinates, dates, range.
func Validate(in StoreInput) (Request, error) {
	var badDates []string
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Request{}, fmt.Errorf("validating input: %w", err)
		}

		var missing []string
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				missing = append(missing, fe.Field())
			case "datetime":
				badDates = append(badDates, fe.Field())
			}
		}
		if len(missing) > 0 {
			return Request{}, fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(missing, ", "))
		}
	}

	lat, err := parseCoordinate("latitude", in.Latitude)
	if err != nil {
		return Request{}, err
	}
	lon, err := parseCoordinate("longitude", in.Longitude)
	if err != nil {
		return Request{}, err
	}

	if len(badDates) > 0 {
		return Request{}, fmt.Errorf("%w: %s must be a valid YYYY-MM-DD date", ErrInvalidDate, strings.Join(badDates, ", "))
	}

	start, err := time.Parse(DateLayout, in.StartDate)
	if err != nil {
		return Request{}, fmt.Errorf("%w: start_date: %v", ErrInvalidDate, err)
	}
	end, err := time.Parse(DateLayout, in.EndDate)
	if err != nil {
		return Request{}, fmt.Errorf("%w: end_date: %v", ErrInvalidDate, err)
	}

	if start.After(end) {
		return Request{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, in.StartDate, in.EndDate)
	}

	return Request{
		Latitude:     lat,
		Longitude:    lon,
		StartDate:    start,
		EndDate:      end,
		RawStartDate: in.StartDate,
		RawEndDate:   in.EndDate,
	}, nil
}

func parseCoordinate(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s %q is not a finite decimal", ErrInvalidNumber, name, s)
	}
	return v, nil
}
