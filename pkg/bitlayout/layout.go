// Package bitlayout models a fixed-layout hardware register as an ordered
// sequence of independently sized bit fields.
//
// A Layout is described by a format string whose characters give the width
// in bits of each field ('1' through '5'), and holds one value symbol per
// field drawn from the alphabet {0-9, A-V}. The same register can then be
// viewed three ways: as the compact symbol string, as a flat sequence of
// booleans ready to shift into a JTAG or SPI chain, or field by field as
// small integers.
//
// Registers rarely line up on nibble boundaries, so a format spells out the
// real field widths directly:
//
//	ctrl := bitlayout.Must("34", "31")
//	ctrl.String() // "011 0001"
//	ctrl.Bits(false, false)
//	// [false true true false false false true]
package bitlayout

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	ErrInvalidFormat    = errors.New("bitlayout: invalid format")
	ErrInvalidValue     = errors.New("bitlayout: invalid value")
	ErrLengthMismatch   = errors.New("bitlayout: length mismatch")
	ErrInsufficientBits = errors.New("bitlayout: insufficient bits")
	ErrFieldRange       = errors.New("bitlayout: field index out of range")
)

type config struct {
	strict          bool
	truncatedDecode bool
	log             *slog.Logger
}

// Option configures a Layout at construction time.
type Option func(*config)

// Strict makes construction and SetValue reject input that the default
// lenient mode silently repairs: format characters outside '1'-'5', value
// symbols outside the alphabet, and value strings longer than the format.
func Strict() Option {
	return func(c *config) { c.strict = true }
}

// WithTruncatedDecode lets SetBits accept a bit sequence shorter than the
// layout, decoding the bits that are present and zero-filling the rest.
// Only useful when replicating captures from tools with the same behavior;
// short input normally fails with ErrInsufficientBits.
func WithTruncatedDecode() Option {
	return func(c *config) { c.truncatedDecode = true }
}

// WithLogger logs lenient-mode normalization decisions (dropped characters,
// truncation) at Debug level. Logging never changes behavior.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) { c.log = log }
}

// Layout is a format-addressed bit sequence: a fixed field structure plus
// one value symbol per field. The format is immutable after construction;
// the value can be replaced or edited per field. A Layout is not safe for
// concurrent mutation; share copies instead.
type Layout struct {
	widths []uint8 // one entry per field, each in [1, MaxFieldWidth]
	val    []byte  // one symbol per field, same length as widths
	cfg    config
}

// New builds a layout from a format string and an initial value string.
//
// Format characters outside '1'-'5' are dropped (lenient) or rejected
// (strict); a '0' is always rejected since a zero-width field cannot hold
// anything. The value goes through the same normalization as SetValue; an
// empty value yields an all-zero register.
func New(format, value string, opts ...Option) (*Layout, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	widths, err := parseFormat(format, cfg)
	if err != nil {
		return nil, err
	}

	l := &Layout{widths: widths, cfg: cfg}
	if err := l.SetValue(value); err != nil {
		return nil, err
	}

	return l, nil
}

// Must is New for layouts known good at compile time; it panics on error.
func Must(format, value string) *Layout {
	l, err := New(format, value)
	if err != nil {
		panic(err)
	}
	return l
}

func parseFormat(format string, cfg config) ([]uint8, error) {
	widths := make([]uint8, 0, len(format))

	for i := 0; i < len(format); i++ {
		c := format[i]
		switch {
		case c == '0':
			return nil, fmt.Errorf(
				"%w: zero-width field at position %d",
				ErrInvalidFormat, i,
			)
		case '1' <= c && c <= '0'+MaxFieldWidth:
			widths = append(widths, c-'0')
		case cfg.strict:
			return nil, fmt.Errorf(
				"%w: character %q at position %d",
				ErrInvalidFormat, format[i], i,
			)
		default:
			if cfg.log != nil {
				cfg.log.Debug(
					"dropped format character",
					"char", string(c),
					"position", i,
				)
			}
		}
	}

	if len(widths) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrInvalidFormat)
	}

	return widths, nil
}

// SetValue replaces the whole value, re-normalized against the current
// format: symbols outside the alphabet are dropped, lower-case letters are
// upper-cased, and the result is truncated or right-padded with '0' to
// exactly one symbol per field. In strict mode a dropped symbol fails with
// ErrInvalidValue and an over-length value with ErrLengthMismatch.
func (l *Layout) SetValue(value string) error {
	val := make([]byte, 0, len(l.widths))

	for i := 0; i < len(value); i++ {
		c := upper(value[i])
		if !isSymbol(c) {
			if l.cfg.strict {
				return fmt.Errorf(
					"%w: symbol %q at position %d",
					ErrInvalidValue, value[i], i,
				)
			}
			if l.cfg.log != nil {
				l.cfg.log.Debug(
					"dropped value symbol",
					"symbol", string(value[i]),
					"position", i,
				)
			}
			continue
		}
		val = append(val, c)
	}

	if len(val) > len(l.widths) {
		if l.cfg.strict {
			return fmt.Errorf(
				"%w: %d symbols for %d fields",
				ErrLengthMismatch, len(val), len(l.widths),
			)
		}
		if l.cfg.log != nil {
			l.cfg.log.Debug(
				"truncated value",
				"symbols", len(val),
				"fields", len(l.widths),
			)
		}
		val = val[:len(l.widths)]
	}
	for len(val) < len(l.widths) {
		val = append(val, '0')
	}

	l.val = val
	return nil
}

// Format returns the canonical format string, one width digit per field.
func (l *Layout) Format() string {
	out := make([]byte, len(l.widths))
	for i, w := range l.widths {
		out[i] = '0' + w
	}
	return string(out)
}

// Value returns the current symbol string, one symbol per field.
func (l *Layout) Value() string { return string(l.val) }

// Len returns the number of fields.
func (l *Layout) Len() int { return len(l.widths) }

// BitLen returns the total number of bits across all fields.
func (l *Layout) BitLen() int {
	n := 0
	for _, w := range l.widths {
		n += int(w)
	}
	return n
}

// Get returns the integer value of the field at index i.
func (l *Layout) Get(i int) (int, error) {
	if i < 0 || i >= len(l.val) {
		return 0, fmt.Errorf("%w: %d", ErrFieldRange, i)
	}
	return SymbolValue(l.val[i]), nil
}

// GetRange returns the integer values of the fields in [i, j).
func (l *Layout) GetRange(i, j int) ([]int, error) {
	if i < 0 || j < i || j > len(l.val) {
		return nil, fmt.Errorf("%w: [%d:%d]", ErrFieldRange, i, j)
	}

	out := make([]int, j-i)
	for k := range out {
		out[k] = SymbolValue(l.val[i+k])
	}

	return out, nil
}

// Set overwrites the symbol of the field at index i. The symbol is written
// as given, without alphabet normalization.
func (l *Layout) Set(i int, symbol byte) error {
	if i < 0 || i >= len(l.val) {
		return fmt.Errorf("%w: %d", ErrFieldRange, i)
	}
	l.val[i] = symbol
	return nil
}

// SetRange overwrites the symbols of the fields in [i, j) with the raw
// replacement string, which must hold exactly j-i symbols.
func (l *Layout) SetRange(i, j int, symbols string) error {
	if i < 0 || j < i || j > len(l.val) {
		return fmt.Errorf("%w: [%d:%d]", ErrFieldRange, i, j)
	}
	if len(symbols) != j-i {
		return fmt.Errorf(
			"%w: %d symbols for %d fields",
			ErrLengthMismatch, len(symbols), j-i,
		)
	}

	copy(l.val[i:j], symbols)
	return nil
}

// Concat returns a new layout whose fields are l's followed by rhs's,
// format and value alike. The result shares no storage with either operand
// and keeps l's options.
func (l *Layout) Concat(rhs *Layout) *Layout {
	out := &Layout{
		widths: make([]uint8, 0, len(l.widths)+len(rhs.widths)),
		val:    make([]byte, 0, len(l.val)+len(rhs.val)),
		cfg:    l.cfg,
	}
	out.widths = append(append(out.widths, l.widths...), rhs.widths...)
	out.val = append(append(out.val, l.val...), rhs.val...)

	return out
}

// Clone returns an independent copy.
func (l *Layout) Clone() *Layout {
	return &Layout{
		widths: append([]uint8(nil), l.widths...),
		val:    append([]byte(nil), l.val...),
		cfg:    l.cfg,
	}
}

// String renders the value as '0'/'1' characters grouped by field with a
// single space between fields, MSB first: Must("34", "31") reads
// "011 0001". Display aid only; use Bits for round-tripping.
func (l *Layout) String() string {
	var sb strings.Builder
	sb.Grow(l.BitLen() + len(l.widths))

	for i, w := range l.widths {
		if i > 0 {
			sb.WriteByte(' ')
		}
		for _, b := range fieldBits(SymbolValue(l.val[i]), int(w), false) {
			if b {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}

	return sb.String()
}

// GoString returns a constructor expression that recreates the layout.
func (l *Layout) GoString() string {
	return fmt.Sprintf("bitlayout.Must(%q, %q)", l.Format(), l.Value())
}
