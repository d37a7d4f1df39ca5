package weather_test

import (
	"io"
	"strings"
)

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

func ptr(v float64) *float64 { return &v }
