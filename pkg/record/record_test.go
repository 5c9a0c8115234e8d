package record

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBytes(humidity bool, samples ...RawSample) []byte {
	var buf []byte
	for _, s := range samples {
		buf = binary.BigEndian.AppendUint16(buf, uint16(s.Temperature))
		if humidity {
			buf = append(buf, byte(s.Humidity))
		}
	}
	return buf
}

func TestDecodeSamples(t *testing.T) {
	t.Parallel()

	start := time.Date(2015, time.July, 20, 11, 44, 56, 0, time.Local)
	header := Header{Start: start, Count: 3, Interval: 10 * time.Second, Humidity: true}
	raw := sampleBytes(true,
		RawSample{Temperature: 215, Humidity: 55},
		RawSample{Temperature: 230, Humidity: 54},
		RawSample{Temperature: -12, Humidity: 60},
	)

	t.Run("exact count", func(t *testing.T) {
		t.Parallel()

		dump, err := DecodeSamples(header, raw)
		require.NoError(t, err)
		require.Len(t, dump.Samples, 3)
		assert.Equal(t, int16(215), dump.Samples[0].Temperature)
		assert.Equal(t, int8(55), dump.Samples[0].Humidity)
		assert.Equal(t, int16(-12), dump.Samples[2].Temperature)
	})
	t.Run("block padding is ignored", func(t *testing.T) {
		t.Parallel()

		padded := append(append([]byte{}, raw...), make([]byte, BlockSize-len(raw))...)
		dump, err := DecodeSamples(header, padded)
		require.NoError(t, err)
		assert.Len(t, dump.Samples, 3)
	})
	t.Run("truncated stream", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeSamples(header, raw[:len(raw)-1])
		assert.ErrorIs(t, err, ErrTruncatedDump)
	})
	t.Run("declared more than present", func(t *testing.T) {
		t.Parallel()

		over := header
		over.Count = 10
		_, err := DecodeSamples(over, raw)
		assert.ErrorIs(t, err, ErrTruncatedDump)
	})
	t.Run("forged count with empty stream", func(t *testing.T) {
		t.Parallel()

		// The declared count must never size an allocation before it
		// has been checked against the stream.
		forged := header
		forged.Count = 0xffffffff
		_, err := DecodeSamples(forged, nil)
		assert.ErrorIs(t, err, ErrTruncatedDump)
	})
}

func TestDecodeSamplesWithoutHumidity(t *testing.T) {
	t.Parallel()

	header := Header{Start: time.Now(), Count: 2, Interval: 60 * time.Second}
	raw := sampleBytes(false, RawSample{Temperature: 100}, RawSample{Temperature: 101})
	dump, err := DecodeSamples(header, raw)
	require.NoError(t, err)
	require.Len(t, dump.Samples, 2)
	assert.Equal(t, int16(101), dump.Samples[1].Temperature)
}

func TestPoints(t *testing.T) {
	t.Parallel()

	start := time.Date(2015, time.July, 20, 12, 0, 0, 0, time.Local)

	t.Run("with humidity", func(t *testing.T) {
		t.Parallel()

		dump := &Dump{
			Header: Header{Start: start, Count: 2, Interval: 5 * time.Minute, Humidity: true},
			Samples: []RawSample{
				{Temperature: 215, Humidity: 55},
				{Temperature: 220, Humidity: 56},
			},
		}
		points := dump.Points()
		require.Len(t, points, 2)
		assert.Equal(t, 0, points[0].Index)
		assert.Equal(t, 1, points[1].Index)
		assert.Equal(t, start, points[0].Timestamp)
		assert.Equal(t, start.Add(5*time.Minute), points[1].Timestamp)
		assert.Equal(t, 21.5, points[0].Temperature)
		require.NotNil(t, points[0].Humidity)
		assert.Equal(t, 55.0, *points[0].Humidity)
	})
	t.Run("without humidity", func(t *testing.T) {
		t.Parallel()

		dump := &Dump{
			Header:  Header{Start: start, Count: 1, Interval: 10 * time.Second},
			Samples: []RawSample{{Temperature: 215}},
		}
		points := dump.Points()
		require.Len(t, points, 1)
		assert.Nil(t, points[0].Humidity)
	})
}

func TestImageRoundTrip(t *testing.T) {
	t.Parallel()

	start := time.Date(2020, time.December, 10, 12, 10, 39, 0, time.Local)
	dump := &Dump{
		Header: Header{Start: start, Count: 3, Interval: 10 * time.Second, Humidity: true},
		Samples: []RawSample{
			{Temperature: 215, Humidity: 55},
			{Temperature: 230, Humidity: 54},
			{Temperature: -12, Humidity: 60},
		},
	}
	decoded, err := DecodeImage(dump.EncodeImage())
	require.NoError(t, err)
	assert.Equal(t, dump.Samples, decoded.Samples)
	assert.Equal(t, dump.Header.Count, decoded.Header.Count)
	assert.Equal(t, dump.Header.Interval, decoded.Header.Interval)
	assert.Equal(t, dump.Header.Humidity, decoded.Header.Humidity)
	assert.True(t, decoded.Header.Start.Equal(start))
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	t.Parallel()

	t.Run("missing magic", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeImage([]byte("definitely not a dump"))
		assert.ErrorIs(t, err, ErrBadImage)
	})
	t.Run("unsupported version", func(t *testing.T) {
		t.Parallel()

		buf := (&Dump{}).EncodeImage()
		buf[4] = 99
		_, err := DecodeImage(buf)
		assert.ErrorIs(t, err, ErrBadImage)
	})
	t.Run("short header", func(t *testing.T) {
		t.Parallel()

		buf := (&Dump{}).EncodeImage()
		_, err := DecodeImage(buf[:8])
		assert.ErrorIs(t, err, ErrBadImage)
	})
	t.Run("truncated samples", func(t *testing.T) {
		t.Parallel()

		dump := &Dump{
			Header:  Header{Start: time.Now(), Count: 2, Interval: 10 * time.Second},
			Samples: []RawSample{{Temperature: 100}, {Temperature: 101}},
		}
		buf := dump.EncodeImage()
		_, err := DecodeImage(buf[:len(buf)-1])
		assert.ErrorIs(t, err, ErrTruncatedDump)
	})
	t.Run("forged sample count", func(t *testing.T) {
		t.Parallel()

		// A valid header declaring 4G samples over an empty sample
		// region must fail cleanly, not allocate for the declared count.
		buf := (&Dump{Header: Header{Interval: 10 * time.Second}}).EncodeImage()
		binary.BigEndian.PutUint32(buf[10:14], 0xffffffff)
		_, err := DecodeImage(buf)
		assert.ErrorIs(t, err, ErrTruncatedDump)
	})
}

func TestHeaderGeometry(t *testing.T) {
	t.Parallel()

	h := Header{Count: 100, Humidity: true}
	assert.Equal(t, 3, h.SampleWidth())
	assert.Equal(t, 300, h.SampleBytes())
	assert.Equal(t, 2, h.Blocks())

	h.Humidity = false
	assert.Equal(t, 2, h.SampleWidth())
	assert.Equal(t, 200, h.SampleBytes())
	assert.Equal(t, 1, h.Blocks())
}
