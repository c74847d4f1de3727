package vlq

import (
	"testing"

	"pgregory.net/rapid"
)

func TestRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Int32().Draw(t, "v")
		enc := EncodeInt(v)
		if len(enc) < 1 || len(enc) > MaxLen {
			t.Fatalf("EncodeInt(%d) produced %d bytes", v, len(enc))
		}
		got, n, err := DecodeInt(enc)
		if err != nil {
			t.Fatalf("DecodeInt(%x): %v", enc, err)
		}
		if n != len(enc) {
			t.Fatalf("DecodeInt(%x) consumed %d bytes, want %d", enc, n, len(enc))
		}
		if got != v {
			t.Fatalf("round trip mismatch: encoded %d, decoded %d (bytes %x)", v, got, enc)
		}
	})
}

func TestEncodeKnownValues(t *testing.T) {
	cases := []struct {
		v    int32
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{-1, []byte{0x7f}},
		{31, []byte{0x1f}},
		{32, []byte{0x20}},
		{-32, []byte{0x60}},
		{-33, []byte{0xff, 0x5f}},
	}
	for _, c := range cases {
		got := EncodeInt(c.v)
		if string(got) != string(c.want) {
			t.Errorf("EncodeInt(%d) = %x, want %x", c.v, got, c.want)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	if _, _, err := DecodeInt([]byte{0x80}); err == nil {
		t.Fatal("expected error decoding a truncated continuation byte")
	}
	if _, _, err := DecodeInt(nil); err == nil {
		t.Fatal("expected error decoding empty input")
	}
}

func TestDecodeOverlong(t *testing.T) {
	overlong := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}
	if _, _, err := DecodeInt(overlong); err == nil {
		t.Fatal("expected error decoding an encoding longer than MaxLen")
	}
}
