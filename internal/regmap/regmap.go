// Package regmap loads named register maps from YAML and exposes
// name-addressed field access on top of pkg/bitlayout's index-addressed
// core. A map names every register of a device and every field within a
// register, the way a datasheet does:
//
//	name: jesd204-dac
//	registers:
//	  - name: DAC_CTRL
//	    reset: "3100"
//	    fields:
//	      - { name: MODE, width: 3 }
//	      - { name: GAIN, width: 4 }
//	      - { name: EN,   width: 1 }
//	      - { name: MUTE, width: 2 }
package regmap

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/prxssh/regbits/pkg/bitlayout"
)

var (
	ErrNoRegisters       = errors.New("regmap: no registers")
	ErrRegisterName      = errors.New("regmap: register missing name")
	ErrDuplicateRegister = errors.New("regmap: duplicate register name")
	ErrNoFields          = errors.New("regmap: register has no fields")
	ErrFieldName         = errors.New("regmap: field missing name")
	ErrDuplicateField    = errors.New("regmap: duplicate field name")
	ErrFieldWidth        = errors.New("regmap: field width out of range")
	ErrUnknownRegister   = errors.New("regmap: unknown register")
	ErrUnknownField      = errors.New("regmap: unknown field")
	ErrFieldValue        = errors.New("regmap: value does not fit field")
)

// Field describes one named sub-field of a register.
type Field struct {
	Name        string `json:"name"`
	Width       int    `json:"width"`
	Description string `json:"description,omitempty"`
}

// Register is one named register: an ordered list of named fields plus a
// bitlayout holding the current value. The register's format string is
// derived from the field widths.
type Register struct {
	Name        string
	Description string

	fields  []Field
	byName  map[string]int
	layout  *bitlayout.Layout
	resetTo string
}

// Map is an ordered collection of registers with unique names.
type Map struct {
	Name      string
	registers []*Register
	byName    map[string]*Register
}

type mapDoc struct {
	Name      string        `json:"name"`
	Registers []registerDoc `json:"registers"`
}

type registerDoc struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Reset       string  `json:"reset"`
	Fields      []Field `json:"fields"`
}

// Parse builds a register map from YAML.
func Parse(data []byte) (*Map, error) {
	var doc mapDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("regmap: %w", err)
	}
	if len(doc.Registers) == 0 {
		return nil, ErrNoRegisters
	}

	m := &Map{
		Name:      doc.Name,
		registers: make([]*Register, 0, len(doc.Registers)),
		byName:    make(map[string]*Register, len(doc.Registers)),
	}

	for _, rd := range doc.Registers {
		reg, err := parseRegister(rd)
		if err != nil {
			return nil, err
		}
		if _, ok := m.byName[reg.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRegister, reg.Name)
		}

		m.registers = append(m.registers, reg)
		m.byName[reg.Name] = reg
	}

	return m, nil
}

// Load reads and parses a register map file.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("regmap: read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}

	return m, nil
}

func parseRegister(rd registerDoc) (*Register, error) {
	if rd.Name == "" {
		return nil, ErrRegisterName
	}
	if len(rd.Fields) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoFields, rd.Name)
	}

	var format strings.Builder
	byName := make(map[string]int, len(rd.Fields))
	for i, f := range rd.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: %q field %d", ErrFieldName, rd.Name, i)
		}
		if _, ok := byName[f.Name]; ok {
			return nil, fmt.Errorf(
				"%w: %q in %q", ErrDuplicateField, f.Name, rd.Name,
			)
		}
		if f.Width < 1 || f.Width > bitlayout.MaxFieldWidth {
			return nil, fmt.Errorf(
				"%w: %q.%q width %d",
				ErrFieldWidth, rd.Name, f.Name, f.Width,
			)
		}

		byName[f.Name] = i
		format.WriteByte(byte('0' + f.Width))
	}

	layout, err := bitlayout.New(format.String(), rd.Reset)
	if err != nil {
		return nil, fmt.Errorf("regmap: %q: %w", rd.Name, err)
	}

	return &Register{
		Name:        rd.Name,
		Description: rd.Description,
		fields:      append([]Field(nil), rd.Fields...),
		byName:      byName,
		layout:      layout,
		resetTo:     layout.Value(),
	}, nil
}

// Registers returns the registers in declaration order.
func (m *Map) Registers() []*Register {
	return append([]*Register(nil), m.registers...)
}

// Register returns the register with the given name.
func (m *Map) Register(name string) (*Register, error) {
	reg, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegister, name)
	}
	return reg, nil
}

// Fields returns the register's fields in bit order, MSB side first.
func (r *Register) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// Layout returns the register's backing layout. Mutating it mutates the
// register; that is how a host layer feeds hardware reads in via SetBits.
func (r *Register) Layout() *bitlayout.Layout { return r.layout }

// Format returns the register's derived format string.
func (r *Register) Format() string { return r.layout.Format() }

// Value returns the register's current symbol string.
func (r *Register) Value() string { return r.layout.Value() }

// Reset restores the register to its declared reset value.
func (r *Register) Reset() {
	// resetTo is the normalized reset symbols, always format-length.
	if err := r.layout.SetValue(r.resetTo); err != nil {
		panic(fmt.Sprintf("regmap: reset %q: %v", r.Name, err))
	}
}

// FieldValue returns the integer value of the named field.
func (r *Register) FieldValue(name string) (int, error) {
	i, ok := r.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q.%q", ErrUnknownField, r.Name, name)
	}
	return r.layout.Get(i)
}

// SetFieldValue sets the named field. Unlike the core's raw symbol writes,
// a named write checks that v fits the field's declared width.
func (r *Register) SetFieldValue(name string, v int) error {
	i, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q.%q", ErrUnknownField, r.Name, name)
	}

	width := r.fields[i].Width
	if v < 0 || v >= 1<<width {
		return fmt.Errorf(
			"%w: %d in %d-bit field %q.%q",
			ErrFieldValue, v, width, r.Name, name,
		)
	}

	return r.layout.Set(i, bitlayout.Symbol(v))
}
