package bitlayout

import (
	"errors"
	"testing"
)

// bitsOf turns a '0'/'1' string into a bit sequence for terse test tables.
func bitsOf(s string) []bool {
	out := make([]bool, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = s[i] == '1'
	}
	return out
}

func TestBitsOrdering(t *testing.T) {
	// Format "34", value "31": '3' is 011 in 3 bits, '1' is 0001 in 4.
	l := Must("34", "31")

	tests := []struct {
		name      string
		revBits   bool
		revFields bool
		want      string
	}{
		{"canonical", false, false, "0110001"},
		{"bits reversed", true, false, "1101000"},
		{"fields reversed", false, true, "0001011"},
		{"both reversed", true, true, "1000110"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBits(l.Bits(tt.revBits, tt.revFields), '0')
			if got != tt.want {
				t.Errorf(
					"Bits(%v, %v) = %s, want %s",
					tt.revBits, tt.revFields, got, tt.want,
				)
			}
		})
	}
}

func TestSetBitsOrdering(t *testing.T) {
	in := bitsOf("0011101")

	tests := []struct {
		name      string
		revBits   bool
		revFields bool
		want      string
	}{
		{"canonical", false, false, "1D"},
		{"bits reversed", true, false, "4B"},
		{"fields reversed", false, true, "53"},
		{"both reversed", true, true, "5C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Must("34", "")
			if err := l.SetBits(in, tt.revBits, tt.revFields); err != nil {
				t.Fatalf("SetBits: %v", err)
			}
			if got := l.Value(); got != tt.want {
				t.Errorf(
					"SetBits(%v, %v) value = %q, want %q",
					tt.revBits, tt.revFields, got, tt.want,
				)
			}
		})
	}
}

func TestBitsRoundTrip(t *testing.T) {
	layouts := []struct {
		format string
		value  string
	}{
		{"34", "31"},
		{"55", "5B"},
		{"3333", "0350"},
		{"12345", "01234"},
		{"111", "101"},
	}

	for _, lt := range layouts {
		for _, revBits := range []bool{false, true} {
			for _, revFields := range []bool{false, true} {
				src := Must(lt.format, lt.value)
				dst := Must(lt.format, "")

				err := dst.SetBits(src.Bits(revBits, revFields), revBits, revFields)
				if err != nil {
					t.Fatalf(
						"SetBits(%q/%q, %v, %v): %v",
						lt.format, lt.value, revBits, revFields, err,
					)
				}
				if dst.Value() != src.Value() {
					t.Errorf(
						"round trip %q/%q (revBits=%v, revFields=%v) = %q",
						lt.format, lt.value, revBits, revFields, dst.Value(),
					)
				}
			}
		}
	}
}

func TestReversedFieldsIsPerFieldReversal(t *testing.T) {
	l := Must("34", "31")

	forward := l.Bits(false, false)
	reversed := l.Bits(false, true)

	// Reversing the field order concatenates the last field's expansion
	// first; the bits inside each field keep their order.
	want := append(append([]bool{}, forward[3:]...), forward[:3]...)
	for i := range want {
		if reversed[i] != want[i] {
			t.Fatalf(
				"Bits(false, true) = %s, want %s",
				FormatBits(reversed, '0'), FormatBits(want, '0'),
			)
		}
	}
}

func TestSetBitsInsufficient(t *testing.T) {
	l := Must("34", "31")

	err := l.SetBits(bitsOf("011000"), false, false)
	if !errors.Is(err, ErrInsufficientBits) {
		t.Fatalf("SetBits(6 bits) error = %v, want ErrInsufficientBits", err)
	}
	if l.Value() != "31" {
		t.Errorf("failed SetBits must not change value; got %q", l.Value())
	}
}

func TestSetBitsTruncatedDecode(t *testing.T) {
	l, err := New("34", "31", WithTruncatedDecode())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Five of seven bits: the second field sees only its top two bits.
	if err := l.SetBits(bitsOf("01100"), false, false); err != nil {
		t.Fatalf("SetBits: %v", err)
	}
	if l.Value() != "30" {
		t.Errorf("Value() = %q, want %q", l.Value(), "30")
	}

	if err := l.SetBits(nil, false, false); err != nil {
		t.Fatalf("SetBits(nil): %v", err)
	}
	if l.Value() != "00" {
		t.Errorf("Value() = %q, want %q", l.Value(), "00")
	}
}

func TestSetBitsIgnoresExtraBits(t *testing.T) {
	l := Must("34", "")

	if err := l.SetBits(bitsOf("0110001111"), false, false); err != nil {
		t.Fatalf("SetBits: %v", err)
	}
	if l.Value() != "31" {
		t.Errorf("Value() = %q, want %q", l.Value(), "31")
	}
}

func TestOversizedSymbolKeepsLowBits(t *testing.T) {
	// 'V' is 31; a width-3 field only holds its low three bits.
	l := Must("3", "")
	if err := l.Set(0, 'V'); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if got := l.String(); got != "111" {
		t.Errorf("String() = %q, want %q", got, "111")
	}
	if got := FormatBits(l.Bits(false, false), '0'); got != "111" {
		t.Errorf("Bits = %s, want 111", got)
	}
}

func TestBitLen(t *testing.T) {
	tests := []struct {
		format string
		want   int
	}{
		{"34", 7},
		{"55", 10},
		{"1", 1},
		{"12345", 15},
	}

	for _, tt := range tests {
		if got := Must(tt.format, "").BitLen(); got != tt.want {
			t.Errorf("BitLen(%q) = %d, want %d", tt.format, got, tt.want)
		}
	}
}

func TestFormatBits(t *testing.T) {
	bits := []bool{false, true, false, true, true}

	if got := FormatBits(bits, '0'); got != "01011" {
		t.Errorf("FormatBits(_, '0') = %q, want %q", got, "01011")
	}
	if got := FormatBits(bits, ' '); got != " 1 11" {
		t.Errorf("FormatBits(_, ' ') = %q, want %q", got, " 1 11")
	}
}
