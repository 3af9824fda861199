package midi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Values and encodings from the variable-length quantity table of the
// Standard MIDI File format.
var vlqCases = []struct {
	value   uint32
	encoded []byte
}{
	{0x00000000, []byte{0x00}},
	{0x00000040, []byte{0x40}},
	{0x0000007f, []byte{0x7f}},
	{0x00000080, []byte{0x81, 0x00}},
	{0x00002000, []byte{0xc0, 0x00}},
	{0x00003fff, []byte{0xff, 0x7f}},
	{0x00004000, []byte{0x81, 0x80, 0x00}},
	{0x00100000, []byte{0xc0, 0x80, 0x00}},
	{0x001fffff, []byte{0xff, 0xff, 0x7f}},
	{0x00200000, []byte{0x81, 0x80, 0x80, 0x00}},
	{0x08000000, []byte{0xc0, 0x80, 0x80, 0x00}},
	{0x0fffffff, []byte{0xff, 0xff, 0xff, 0x7f}},
}

func TestEncodeVLQ(t *testing.T) {
	for _, c := range vlqCases {
		t.Run(fmt.Sprintf("0x%08x", c.value), func(t *testing.T) {
			assert := assert.New(t)
			got, err := EncodeVLQ(c.value)
			assert.NoError(err)
			assert.Equal(c.encoded, got)

			n, size, err := DecodeVLQ(got)
			assert.NoError(err)
			assert.Equal(c.value, n)
			assert.Equal(len(c.encoded), size)
		})
	}
}

func TestVLQRoundTrip(t *testing.T) {
	for n := uint32(0); n <= MaxVLQ; n = n*3 + 1 {
		b, err := EncodeVLQ(n)
		if err != nil {
			t.Fatalf("encode 0x%08x: %s", n, err)
		}
		got, _, err := DecodeVLQ(b)
		if err != nil || got != n {
			t.Fatalf("round trip 0x%08x: got 0x%08x, %v", n, got, err)
		}
	}
}

func TestEncodeVLQTooLarge(t *testing.T) {
	_, err := EncodeVLQ(MaxVLQ + 1)
	assert.Error(t, err)
}

func TestDecodeVLQRejectsFiveBytes(t *testing.T) {
	_, _, err := DecodeVLQ([]byte{0xff, 0xff, 0xff, 0x80, 0x7f})

	var re *ReadError
	assert := assert.New(t)
	assert.ErrorAs(err, &re)
	assert.Equal(0, re.Offset)
}

func TestDecodeVLQTruncated(t *testing.T) {
	_, _, err := DecodeVLQ([]byte{0x81, 0x80})

	var re *ReadError
	assert := assert.New(t)
	assert.ErrorAs(err, &re)
	assert.Equal(2, re.Offset)
}

func TestFixedRoundTrip(t *testing.T) {
	for size := 1; size <= 3; size++ {
		max := uint32(1)<<(8*uint(size)) - 1
		for _, n := range []uint32{0, 1, 0x7f, 0x80, max / 2, max} {
			name := fmt.Sprintf("%d bytes, %d", size, n)
			t.Run(name, func(t *testing.T) {
				b := EncodeFixed(n, size)
				assert.Len(t, b, size)
				got, err := DecodeFixed(b, size)
				assert.NoError(t, err)
				assert.Equal(t, n, got)
			})
		}
	}
}

func TestFixedIsBigEndian(t *testing.T) {
	assert.Equal(t, []byte{0x07, 0xa1, 0x20}, EncodeFixed(500000, 3))
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x06}, EncodeFixed(6, 4))
}

func TestTextRoundTrip(t *testing.T) {
	for _, s := range []string{"", "Hello, world!", "ドレミ", string(make([]byte, 200))} {
		b, err := EncodeText(s)
		assert.NoError(t, err)
		got, size, err := DecodeText(b)
		assert.NoError(t, err)
		assert.Equal(t, s, got)
		assert.Equal(t, len(b), size)
	}
}
