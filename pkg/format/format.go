// Package format renders measurement data points through %-directive
// templates, the output mini-language of the original tool:
//
//	%p  literal percent sign
//	%c  data point index, starting at zero
//	%d  timestamp, rendered by the caller-supplied time formatter
//	%t  temperature in degrees Celsius
//	%h  relative humidity in percent
//	%f  temperature in degrees Fahrenheit
//	%a  absolute humidity in g/m³
//	%w  dew point in degrees Celsius
//	%o  dew point in degrees Fahrenheit
//
// Unknown directives fail with ErrUnknownDirective. Humidity-derived
// directives fail with ErrNoHumidity when humidity was not recorded at
// capture time; a value is never fabricated.
package format

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tfd500-tools/tfd500ctl/pkg/measurement"
	"github.com/tfd500-tools/tfd500ctl/pkg/record"
)

var (
	ErrUnknownDirective = errors.New("unknown format directive")
	ErrNoHumidity       = errors.New("humidity was not recorded")
)

// TimeFormatter renders a data point timestamp. Locale and layout concerns
// stay with the caller.
type TimeFormatter func(time.Time) string

// DefaultTemplate returns the default record template for a recording with
// or without humidity.
func DefaultTemplate(humidity bool) string {
	if humidity {
		return "%c;%d;%t;%h"
	}
	return "%c;%d;%t"
}

// Render expands template against one data point.
func Render(template string, p record.DataPoint, formatTime TimeFormatter) (string, error) {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			b.WriteByte(template[i])
			continue
		}
		i++
		if i >= len(template) {
			return "", fmt.Errorf("%w: trailing %%", ErrUnknownDirective)
		}
		switch template[i] {
		case 'p':
			b.WriteByte('%')
		case 'c':
			b.WriteString(strconv.Itoa(p.Index))
		case 'd':
			b.WriteString(formatTime(p.Timestamp))
		case 't':
			writeFloat(&b, p.Temperature, 1)
		case 'f':
			writeFloat(&b, measurement.CelsiusToFahrenheit(p.Temperature), 1)
		case 'h', 'a', 'w', 'o':
			if p.Humidity == nil {
				return "", fmt.Errorf("%w: directive %%%c", ErrNoHumidity, template[i])
			}
			switch template[i] {
			case 'h':
				writeFloat(&b, *p.Humidity, 0)
			case 'a':
				writeFloat(&b, measurement.AbsoluteHumidity(p.Temperature, *p.Humidity), 1)
			case 'w':
				writeFloat(&b, measurement.DewPoint(p.Temperature, *p.Humidity), 1)
			case 'o':
				writeFloat(&b, measurement.CelsiusToFahrenheit(measurement.DewPoint(p.Temperature, *p.Humidity)), 1)
			}
		default:
			return "", fmt.Errorf("%w: %%%c", ErrUnknownDirective, template[i])
		}
	}
	return b.String(), nil
}

func writeFloat(b *strings.Builder, v float64, prec int) {
	b.WriteString(strconv.FormatFloat(v, 'f', prec, 64))
}
