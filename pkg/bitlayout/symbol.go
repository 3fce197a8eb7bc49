package bitlayout

const (
	// MaxFieldWidth is the widest field a format may declare, in bits.
	MaxFieldWidth = 5

	symbolCount = 1 << MaxFieldWidth
)

// symbolVal maps a symbol byte to the integer it encodes, or -1 for bytes
// outside the alphabet. Built once at startup, never mutated.
var symbolVal [256]int8

func init() {
	for i := range symbolVal {
		symbolVal[i] = -1
	}
	for c := byte('0'); c <= '9'; c++ {
		symbolVal[c] = int8(c - '0')
	}
	for c := byte('A'); c <= 'V'; c++ {
		symbolVal[c] = int8(10 + c - 'A')
	}
}

// SymbolValue returns the integer encoded by symbol c: '0'-'9' decode to
// 0-9 and 'A'-'V' to 10-31. Lower-case letters are accepted. Bytes outside
// the alphabet decode as 0.
func SymbolValue(c byte) int {
	v := symbolVal[upper(c)]
	if v < 0 {
		return 0
	}
	return int(v)
}

// Symbol returns the symbol encoding v. Values outside [0,31] are reduced
// to their low five bits first.
func Symbol(v int) byte {
	v &= symbolCount - 1
	if v < 10 {
		return byte('0' + v)
	}
	return byte('A' + v - 10)
}

func isSymbol(c byte) bool { return symbolVal[c] >= 0 }

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// FormatBits renders a bit sequence as text, one byte per bit: '1' for set
// bits, zero for clear ones. Passing ' ' as zero makes sparse scan-chain
// captures easier to eyeball than a wall of '0's.
func FormatBits(bits []bool, zero byte) string {
	out := make([]byte, len(bits))
	for i, b := range bits {
		if b {
			out[i] = '1'
		} else {
			out[i] = zero
		}
	}
	return string(out)
}
