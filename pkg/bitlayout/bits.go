package bitlayout

import "fmt"

// fieldBits expands the low width bits of v into booleans, MSB first by
// default or LSB first when rev is set. Bits above width are discarded, so
// an oversized symbol simply loses its high bits. This is the single
// expansion primitive behind Bits and String.
func fieldBits(v, width int, rev bool) []bool {
	bits := make([]bool, width)
	for i := 0; i < width; i++ {
		b := (v>>i)&1 == 1
		if rev {
			bits[i] = b
		} else {
			bits[width-1-i] = b
		}
	}
	return bits
}

// Bits expands the value into one flat bit sequence of BitLen booleans.
// Fields are emitted left to right, each MSB first. revBits emits each
// field LSB first instead; revFields walks the fields right to left. The
// two flags are independent, matching shift registers that clock either
// end first.
func (l *Layout) Bits(revBits, revFields bool) []bool {
	out := make([]bool, 0, l.BitLen())

	for k := range l.widths {
		i := k
		if revFields {
			i = len(l.widths) - 1 - k
		}
		out = append(out, fieldBits(
			SymbolValue(l.val[i]), int(l.widths[i]), revBits,
		)...)
	}

	return out
}

// SetBits replaces the value from a flat bit sequence, the inverse of Bits
// under the same flags. The sequence must hold at least BitLen entries or
// SetBits fails with ErrInsufficientBits; entries beyond BitLen are
// ignored. With WithTruncatedDecode a short sequence is accepted and the
// missing trailing bits read as zero.
func (l *Layout) SetBits(bits []bool, revBits, revFields bool) error {
	if len(bits) < l.BitLen() && !l.cfg.truncatedDecode {
		return fmt.Errorf(
			"%w: got %d, layout needs %d",
			ErrInsufficientBits, len(bits), l.BitLen(),
		)
	}

	val := make([]byte, len(l.widths))
	offset := 0

	for k := range l.widths {
		i := k
		if revFields {
			i = len(l.widths) - 1 - k
		}

		w := int(l.widths[i])
		end := offset + w
		if end > len(bits) {
			end = len(bits)
		}
		chunk := bits[offset:end]
		offset += w

		v := 0
		if revBits {
			for bi, b := range chunk {
				if b {
					v |= 1 << bi
				}
			}
		} else {
			for _, b := range chunk {
				v <<= 1
				if b {
					v |= 1
				}
			}
		}
		val[i] = Symbol(v)
	}

	l.val = val
	return nil
}
