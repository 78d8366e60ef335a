package tsql

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Print renders t in the textual type grammar. Print/Parse round-trip
// exactly for every shape the grammar can express (spec §8 property 1),
// including nested records and attributes with embedded escapes.
func Print(t Type) string { return t.String() }

// Parse is the inverse of Print. It is a small recursive-descent parser
// over the same grammar String() emits; the textual query-language parser
// itself is an external collaborator (spec §1) but the *type* grammar is
// part of the core's public contract (spec §4.A).
func Parse(s string) (Type, error) {
	p := &typeParser{src: s}
	p.skipSpace()
	t, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Type{}, errors.Errorf("trailing input at offset %d: %q", p.pos, p.src[p.pos:])
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\n' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) peekByte() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *typeParser) expect(b byte) error {
	c, ok := p.peekByte()
	if !ok || c != b {
		return errors.Errorf("expected %q at offset %d", b, p.pos)
	}
	p.pos++
	return nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *typeParser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) parseType() (Type, error) {
	p.skipSpace()
	start := p.pos
	ident := p.parseIdent()
	if ident == "" {
		return Type{}, errors.Errorf("expected type at offset %d", p.pos)
	}
	name := ""
	p.skipSpace()
	if c, ok := p.peekByte(); ok && c == '=' {
		p.pos++
		name = ident
		ident = p.parseIdent()
	}
	var t Type
	var err error
	switch ident {
	case "null", "bool", "int64", "uint64", "double", "duration", "time", "string", "blob", "ip", "subnet", "pattern":
		t = primitiveByName(ident)
	case "list":
		t, err = p.parseList()
	case "map":
		t, err = p.parseMap()
	case "record":
		t, err = p.parseRecord()
	case "enum":
		t, err = p.parseEnum()
	default:
		return Type{}, errors.Errorf("unknown type keyword %q at offset %d", ident, start)
	}
	if err != nil {
		return Type{}, err
	}
	if name != "" {
		t = t.Named(name)
	}
	p.skipSpace()
	if attrs, ok, aerr := p.tryParseAttributes(); aerr != nil {
		return Type{}, aerr
	} else if ok {
		t = t.WithAttributes(attrs...)
	}
	return t, nil
}

func primitiveByName(ident string) Type {
	switch ident {
	case "null":
		return Null
	case "bool":
		return Bool
	case "int64":
		return Int64
	case "uint64":
		return Uint64
	case "double":
		return Double
	case "duration":
		return Duration
	case "time":
		return Time
	case "string":
		return String
	case "blob":
		return Blob
	case "ip":
		return IP
	case "subnet":
		return Subnet
	case "pattern":
		return Pattern
	}
	return Type{}
}

func (p *typeParser) parseList() (Type, error) {
	if err := p.expect('<'); err != nil {
		return Type{}, err
	}
	elem, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	p.skipSpace()
	if err := p.expect('>'); err != nil {
		return Type{}, err
	}
	return NewList(elem), nil
}

func (p *typeParser) parseMap() (Type, error) {
	if err := p.expect('<'); err != nil {
		return Type{}, err
	}
	key, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	p.skipSpace()
	if err := p.expect(','); err != nil {
		return Type{}, err
	}
	p.skipSpace()
	val, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	p.skipSpace()
	if err := p.expect('>'); err != nil {
		return Type{}, err
	}
	return NewMap(key, val), nil
}

func (p *typeParser) parseRecord() (Type, error) {
	if err := p.expect('{'); err != nil {
		return Type{}, err
	}
	var fields []Field
	p.skipSpace()
	for {
		if c, ok := p.peekByte(); ok && c == '}' {
			p.pos++
			break
		}
		name := p.parseIdent()
		if name == "" {
			return Type{}, errors.Errorf("expected field name at offset %d", p.pos)
		}
		p.skipSpace()
		if err := p.expect(':'); err != nil {
			return Type{}, err
		}
		p.skipSpace()
		ft, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		fields = append(fields, Field{Name: name, Type: ft})
		p.skipSpace()
		if c, ok := p.peekByte(); ok && c == ',' {
			p.pos++
			p.skipSpace()
			continue
		}
	}
	return NewRecord(fields)
}

func (p *typeParser) parseEnum() (Type, error) {
	if err := p.expect('{'); err != nil {
		return Type{}, err
	}
	var variants []EnumVariant
	p.skipSpace()
	var ordinal uint32
	for {
		if c, ok := p.peekByte(); ok && c == '}' {
			p.pos++
			break
		}
		name := p.parseIdent()
		if name == "" {
			return Type{}, errors.Errorf("expected enum variant at offset %d", p.pos)
		}
		variants = append(variants, EnumVariant{Name: name, Ordinal: ordinal})
		ordinal++
		p.skipSpace()
		if c, ok := p.peekByte(); ok && c == ',' {
			p.pos++
			p.skipSpace()
			continue
		}
	}
	return NewEnum(variants)
}

func (p *typeParser) tryParseAttributes() ([]Attribute, bool, error) {
	save := p.pos
	p.skipSpace()
	if !strings.HasPrefix(p.src[p.pos:], "#[") {
		p.pos = save
		return nil, false, nil
	}
	p.pos += 2
	var attrs []Attribute
	for {
		p.skipSpace()
		key := p.parseIdent()
		if key == "" {
			return nil, false, errors.Errorf("expected attribute key at offset %d", p.pos)
		}
		if err := p.expect('='); err != nil {
			return nil, false, err
		}
		val, err := p.parseQuoted()
		if err != nil {
			return nil, false, err
		}
		attrs = append(attrs, Attribute{Key: key, Value: val})
		p.skipSpace()
		if c, ok := p.peekByte(); ok && c == ',' {
			p.pos++
			continue
		}
		if err := p.expect(']'); err != nil {
			return nil, false, err
		}
		break
	}
	return attrs, true, nil
}

func (p *typeParser) parseQuoted() (string, error) {
	if err := p.expect('"'); err != nil {
		return "", err
	}
	start := p.pos
	for {
		c, ok := p.peekByte()
		if !ok {
			return "", errors.Errorf("unterminated string literal")
		}
		if c == '\\' {
			p.pos += 2
			continue
		}
		if c == '"' {
			break
		}
		p.pos++
	}
	raw := p.src[start:p.pos]
	p.pos++ // closing quote
	unquoted, err := strconv.Unquote(`"` + raw + `"`)
	if err != nil {
		return "", errors.Wrap(err, "invalid escape sequence in attribute value")
	}
	return unquoted, nil
}
