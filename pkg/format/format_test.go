package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfd500-tools/tfd500ctl/pkg/record"
)

func identity(time.Time) string {
	return "T"
}

func humidityPoint() record.DataPoint {
	rh := 50.0
	return record.DataPoint{
		Index:       7,
		Timestamp:   time.Date(2015, time.July, 20, 12, 0, 0, 0, time.UTC),
		Temperature: 20.0,
		Humidity:    &rh,
	}
}

func TestRenderDefaultTemplate(t *testing.T) {
	t.Parallel()

	p := record.DataPoint{Index: 3, Temperature: 21.5}
	out, err := Render("%c;%d;%t", p, identity)
	require.NoError(t, err)
	assert.Equal(t, "3;T;21.5", out)
}

func TestRenderDirectives(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"literal percent", "100%p", "100%"},
		{"index", "%c", "7"},
		{"timestamp", "[%d]", "[T]"},
		{"celsius", "%t", "20.0"},
		{"fahrenheit", "%f", "68.0"},
		{"relative humidity", "%h", "50"},
		{"dew point celsius", "%w", "9.3"},
		{"dew point fahrenheit", "%o", "48.7"},
		{"absolute humidity", "%a", "8.6"},
		{"combined", "%c;%d;%t;%h", "7;T;20.0;50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := Render(tt.template, humidityPoint(), identity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRenderMissingHumidity(t *testing.T) {
	t.Parallel()

	p := record.DataPoint{Index: 0, Temperature: 21.5}
	for _, directive := range []string{"%h", "%a", "%w", "%o"} {
		_, err := Render(directive, p, identity)
		assert.ErrorIs(t, err, ErrNoHumidity, directive)
	}
	// Temperature directives still work on the same point.
	out, err := Render("%t/%f", p, identity)
	require.NoError(t, err)
	assert.Equal(t, "21.5/70.7", out)
}

func TestRenderUnknownDirective(t *testing.T) {
	t.Parallel()

	_, err := Render("%c;%z", humidityPoint(), identity)
	assert.ErrorIs(t, err, ErrUnknownDirective)

	_, err = Render("trailing %", humidityPoint(), identity)
	assert.ErrorIs(t, err, ErrUnknownDirective)
}

func TestDefaultTemplate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "%c;%d;%t", DefaultTemplate(false))
	assert.Equal(t, "%c;%d;%t;%h", DefaultTemplate(true))
}
