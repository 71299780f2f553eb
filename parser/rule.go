package parser

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"sockkit/socket"
)

// Rule is a declarative protocol description.  Rule files are YAML;
// JSON documents load unchanged since YAML is a superset.
//
//	protocol-info: {name: beacon, version: "1"}
//	filter:
//	  - {enable: true, offset: 0, length: 2, type: uint, value: 0xCAFE}
//	classify:
//	  - {name: ping, offset: 2, length: 1, type: uint, value: 1}
type Rule struct {
	Info     ProtocolInfo `yaml:"protocol-info" json:"protocol-info"`
	Filter   []Field      `yaml:"filter" json:"filter"`
	Classify []Class      `yaml:"classify" json:"classify"`
}

// ProtocolInfo names the protocol a rule describes.
type ProtocolInfo struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Version     string `yaml:"version" json:"version"`
}

// Field matches length bytes at offset against value.  Type is int,
// uint (the default), string or bytes (value as hex).  Integers are big-endian unless
// Endian is "little".  Only enabled filter fields are checked.
type Field struct {
	Enable bool   `yaml:"enable" json:"enable"`
	Offset int    `yaml:"offset" json:"offset"`
	Length int    `yaml:"length" json:"length"`
	Type   string `yaml:"type" json:"type"`
	Value  any    `yaml:"value" json:"value"`
	Endian string `yaml:"endian" json:"endian"`
}

// Class names the units whose field matches.
type Class struct {
	Name   string `yaml:"name" json:"name"`
	Offset int    `yaml:"offset" json:"offset"`
	Length int    `yaml:"length" json:"length"`
	Type   string `yaml:"type" json:"type"`
	Value  any    `yaml:"value" json:"value"`
	Endian string `yaml:"endian" json:"endian"`
}

// RuleParser evaluates a compiled Rule.
type RuleParser struct {
	rule    Rule
	filters []matcher
	classes []namedMatcher
}

type namedMatcher struct {
	name string
	matcher
}

// matcher compares one field of a unit against an expected value.
type matcher struct {
	offset, length int
	want           []byte
}

func (m matcher) match(data []byte) bool {
	if m.offset < 0 || m.offset+m.length > len(data) {
		return false
	}
	return bytes.Equal(data[m.offset:m.offset+m.length], m.want)
}

// LoadRule reads and compiles a rule file.
func LoadRule(path string) (*RuleParser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	p, err := ParseRule(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParseRule compiles a YAML or JSON rule document.
func ParseRule(data []byte) (*RuleParser, error) {
	var r Rule
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse rule: %w", err)
	}
	return NewRuleParser(r)
}

// NewRuleParser compiles r.  The protocol name is required.
func NewRuleParser(r Rule) (*RuleParser, error) {
	if r.Info.Name == "" {
		return nil, fmt.Errorf("rule: protocol-info.name is required")
	}
	p := &RuleParser{rule: r}
	for i, f := range r.Filter {
		if !f.Enable {
			continue
		}
		m, err := compile(f.Offset, f.Length, typeOrUint(f.Type), f.Endian, f.Value)
		if err != nil {
			return nil, fmt.Errorf("rule: filter[%d]: %w", i, err)
		}
		p.filters = append(p.filters, m)
	}
	for i, c := range r.Classify {
		if c.Name == "" {
			return nil, fmt.Errorf("rule: classify[%d]: name is required", i)
		}
		m, err := compile(c.Offset, c.Length, typeOrUint(c.Type), c.Endian, c.Value)
		if err != nil {
			return nil, fmt.Errorf("rule: classify[%d]: %w", i, err)
		}
		p.classes = append(p.classes, namedMatcher{name: c.Name, matcher: m})
	}
	return p, nil
}

// Rule returns the source rule.
func (p *RuleParser) Rule() Rule { return p.rule }

// Parse implements Parser.  A unit matches when every enabled filter
// matches; matching units get the name of the first matching class.
func (p *RuleParser) Parse(data []byte, _ socket.AddressInfo) (Result, error) {
	res := Result{Protocol: p.rule.Info.Name, Length: len(data)}
	for _, f := range p.filters {
		if !f.match(data) {
			return res, nil
		}
	}
	res.Matched = true
	for _, c := range p.classes {
		if c.match(data) {
			res.Class = c.name
			break
		}
	}
	return res, nil
}

// typeOrUint applies the default field type.
func typeOrUint(typ string) string {
	if typ == "" {
		return "uint"
	}
	return typ
}

func compile(offset, length int, typ, endian string, value any) (matcher, error) {
	if offset < 0 {
		return matcher{}, fmt.Errorf("negative offset %d", offset)
	}
	var order binary.ByteOrder = binary.BigEndian
	switch strings.ToLower(endian) {
	case "", "big":
	case "little":
		order = binary.LittleEndian
	default:
		return matcher{}, fmt.Errorf("unknown endian %q", endian)
	}

	m := matcher{offset: offset, length: length}
	switch strings.ToLower(typ) {
	case "int", "uint":
		if length != 1 && length != 2 && length != 4 && length != 8 {
			return matcher{}, fmt.Errorf("integer length must be 1, 2, 4 or 8, got %d", length)
		}
		u, err := integer(value, length, strings.EqualFold(typ, "int"))
		if err != nil {
			return matcher{}, err
		}
		m.want = encode(u, length, order)
	case "string":
		s, ok := value.(string)
		if !ok {
			return matcher{}, fmt.Errorf("string value expected, got %T", value)
		}
		m.want = []byte(s)
	case "bytes":
		s, ok := value.(string)
		if !ok {
			return matcher{}, fmt.Errorf("hex string value expected, got %T", value)
		}
		b, err := hex.DecodeString(strings.TrimPrefix(strings.ReplaceAll(s, " ", ""), "0x"))
		if err != nil {
			return matcher{}, fmt.Errorf("bad hex value %q: %w", s, err)
		}
		m.want = b
	default:
		return matcher{}, fmt.Errorf("unknown type %q", typ)
	}

	if length == 0 {
		m.length = len(m.want)
	}
	if m.length != len(m.want) {
		return matcher{}, fmt.Errorf("value is %d bytes, length is %d", len(m.want), m.length)
	}
	if m.length == 0 {
		return matcher{}, fmt.Errorf("empty field")
	}
	return m, nil
}

// integer converts a decoded rule value to the two's-complement bits of
// an integer field of size bytes, checking that it fits.
func integer(value any, size int, signed bool) (uint64, error) {
	var (
		i    int64
		huge uint64 // set when the value exceeds math.MaxInt64
	)
	switch v := value.(type) {
	case int:
		i = int64(v)
	case int64:
		i = v
	case uint64:
		if v > math.MaxInt64 {
			huge = v
		} else {
			i = int64(v)
		}
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt64 {
			return 0, fmt.Errorf("non-integer value %v", v)
		}
		i = int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 0, 64); err == nil {
			i = n
		} else if n, err := strconv.ParseUint(v, 0, 64); err == nil {
			huge = n
		} else {
			return 0, fmt.Errorf("bad integer %q", v)
		}
	default:
		return 0, fmt.Errorf("integer value expected, got %T", value)
	}

	bits := uint(size * 8)
	if huge != 0 {
		if signed || bits < 64 {
			return 0, fmt.Errorf("value %d out of range for a %d-byte field", huge, size)
		}
		return huge, nil
	}
	switch {
	case !signed && i < 0:
		return 0, fmt.Errorf("negative value %d for an unsigned field", i)
	case signed && bits < 64:
		lo, hi := -(int64(1) << (bits - 1)), int64(1)<<(bits-1)-1
		if i < lo || i > hi {
			return 0, fmt.Errorf("value %d out of range for a %d-byte int", i, size)
		}
	case !signed && bits < 64 && uint64(i) > uint64(1)<<bits-1:
		return 0, fmt.Errorf("value %d out of range for a %d-byte uint", i, size)
	}
	return uint64(i), nil
}

func encode(u uint64, size int, order binary.ByteOrder) []byte {
	b := make([]byte, 8)
	switch size {
	case 1:
		b[0] = byte(u)
	case 2:
		order.PutUint16(b, uint16(u))
	case 4:
		order.PutUint32(b, uint32(u))
	case 8:
		order.PutUint64(b, u)
	}
	return b[:size]
}
