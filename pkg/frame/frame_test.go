package frame

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cmd     byte
		payload []byte
	}{
		{"no payload", CmdVersion, nil},
		{"ascii payload", CmdSetClock, []byte("20.07.15 11:44:56")},
		{"block request", CmdReadBlock, []byte("0042")},
		{"full record block", CmdReadBlock, bytes.Repeat([]byte{0x5a}, 256)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf, err := Encode(tt.cmd, tt.payload)
			require.NoError(t, err)
			f, err := Decode(buf)
			require.NoError(t, err)
			assert.Equal(t, tt.cmd, f.Command)
			assert.Equal(t, len(tt.payload), len(f.Payload))
			assert.Equal(t, []byte(tt.payload), append([]byte{}, f.Payload...))
		})
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	t.Parallel()

	_, err := Encode(CmdReadBlock, make([]byte, MaxPayload+1))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestDecodeRejectsCorruptFrames(t *testing.T) {
	t.Parallel()

	good, err := Encode(CmdStatus, []byte("0"))
	require.NoError(t, err)

	t.Run("bad start marker", func(t *testing.T) {
		t.Parallel()

		buf := append([]byte{}, good...)
		buf[0] = 0x7f
		_, err := Decode(buf)
		assert.ErrorIs(t, err, ErrMalformedFrame)
	})
	t.Run("short header", func(t *testing.T) {
		t.Parallel()

		_, err := Decode(good[:2])
		assert.ErrorIs(t, err, ErrMalformedFrame)
	})
	t.Run("length mismatch", func(t *testing.T) {
		t.Parallel()

		buf := append([]byte{}, good...)
		buf[3] = 5
		_, err := Decode(buf)
		assert.ErrorIs(t, err, ErrMalformedFrame)
	})
	t.Run("flipped payload byte", func(t *testing.T) {
		t.Parallel()

		buf := append([]byte{}, good...)
		buf[HeaderSize] ^= 0xff
		_, err := Decode(buf)
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})
	t.Run("flipped checksum", func(t *testing.T) {
		t.Parallel()

		buf := append([]byte{}, good...)
		buf[len(buf)-1] ^= 0x01
		_, err := Decode(buf)
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})
}

func TestPayloadLength(t *testing.T) {
	t.Parallel()

	buf, err := Encode(CmdReadBlock, make([]byte, 256))
	require.NoError(t, err)
	n, err := PayloadLength(buf[:HeaderSize])
	require.NoError(t, err)
	assert.Equal(t, 256, n)
}
