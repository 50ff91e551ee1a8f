package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/roach88/traitc/internal/trait"
)

// ErrCorrupt is returned when a binary stream or XML document holds
// malformed trait data.
var ErrCorrupt = errors.New("corrupt trait stream")

const (
	magic   = "TRTC"
	version = 1

	maxString = 1 << 24
	maxCount  = 1 << 20
)

// Component fact bits.
const (
	factGlobal = 1 << iota
	factRemote
	factSignature
)

// encoder appends to an in-memory buffer; the caller flushes it once.
type encoder struct {
	buf []byte
}

func (e *encoder) byte(b byte) { e.buf = append(e.buf, b) }

func (e *encoder) bool(b bool) {
	if b {
		e.byte(1)
	} else {
		e.byte(0)
	}
}

func (e *encoder) uint32(v uint32) { e.buf = binary.BigEndian.AppendUint32(e.buf, v) }

func (e *encoder) count(n int) { e.buf = binary.AppendUvarint(e.buf, uint64(n)) }

func (e *encoder) string(s string) {
	e.count(len(s))
	e.buf = append(e.buf, s...)
}

func (e *encoder) uid(u uuid.UUID) { e.buf = append(e.buf, u[:]...) }

func (e *encoder) traitInfo(t trait.Trait) {
	e.uid(t.UID)
	e.byte(byte(t.Mode))
	e.byte(byte(t.Origin.Level))
	e.bool(t.Origin.Manual)
	e.count(len(t.Origin.Interfaces))
	for _, name := range t.Origin.Interfaces {
		e.string(name)
	}
	e.string(t.Origin.Integration)
	e.string(t.Tip)
	e.string(t.Text)
}

func (e *encoder) behavior(b *trait.Behavior) {
	e.traitInfo(b.Trait)
	e.string(b.Name)
	e.uint32(b.Flags.Pack())
	e.uint32(b.PrevFlags.Pack())

	e.traitInfo(b.Return.Trait)
	e.string(string(b.Return.Type))

	e.count(len(b.Params))
	for _, p := range b.Params {
		e.traitInfo(p.Trait)
		e.string(string(p.Type))
		e.string(p.Name)
		e.uint32(trait.PackDirection(p.Direction))
	}

	keys := b.Exceptions.Keys()
	e.count(len(keys))
	for _, k := range keys {
		x := b.Exceptions[k]
		e.string(k)
		e.traitInfo(x.Trait)
		e.string(string(x.Type))
		e.uint32(trait.PackExistence(x.Exists))
	}

	e.count(len(b.Scripts))
	for _, s := range b.Scripts {
		e.traitInfo(s.Trait)
		e.string(s.Language)
		e.string(s.Script)
	}

	e.bool(b.OverrideBase)
	e.count(b.BaseLevelImpl)
}

// decoder reads from a buffered stream and keeps the first error.
type decoder struct {
	r   *bufio.Reader
	err error
}

func newDecoder(r io.Reader) *decoder {
	if br, ok := r.(*bufio.Reader); ok {
		return &decoder{r: br}
	}
	return &decoder{r: bufio.NewReader(r)}
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) byte() byte {
	if d.err != nil {
		return 0
	}
	b, err := d.r.ReadByte()
	if err != nil {
		d.fail(err)
	}
	return b
}

func (d *decoder) bool() bool {
	switch d.byte() {
	case 0:
		return false
	case 1:
		return true
	default:
		d.fail(fmt.Errorf("%w: bad boolean", ErrCorrupt))
		return false
	}
}

func (d *decoder) uint32() uint32 {
	var b [4]byte
	d.full(b[:])
	return binary.BigEndian.Uint32(b[:])
}

func (d *decoder) count() int {
	if d.err != nil {
		return 0
	}
	n, err := binary.ReadUvarint(d.r)
	if err != nil {
		d.fail(err)
		return 0
	}
	if n > maxCount {
		d.fail(fmt.Errorf("%w: count %d too large", ErrCorrupt, n))
		return 0
	}
	return int(n)
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	n, err := binary.ReadUvarint(d.r)
	if err != nil {
		d.fail(err)
		return ""
	}
	if n > maxString {
		d.fail(fmt.Errorf("%w: string length %d too large", ErrCorrupt, n))
		return ""
	}
	b := make([]byte, n)
	d.full(b)
	return string(b)
}

func (d *decoder) full(b []byte) {
	if d.err != nil {
		return
	}
	if _, err := io.ReadFull(d.r, b); err != nil {
		d.fail(err)
	}
}

func (d *decoder) uid() uuid.UUID {
	var u uuid.UUID
	d.full(u[:])
	return u
}

func (d *decoder) mode() trait.Mode {
	m := trait.Mode(d.byte())
	if d.err == nil && !m.Valid() {
		d.fail(fmt.Errorf("%w: mode %d", ErrCorrupt, m))
	}
	return m
}

func (d *decoder) traitInfo() trait.Trait {
	t := trait.Trait{UID: d.uid(), Mode: d.mode()}
	t.Origin.Level = trait.OriginLevel(d.byte())
	t.Origin.Manual = d.bool()
	if n := d.count(); n > 0 {
		t.Origin.Interfaces = make([]string, n)
		for i := range t.Origin.Interfaces {
			t.Origin.Interfaces[i] = d.string()
		}
	}
	t.Origin.Integration = d.string()
	t.Tip = d.string()
	t.Text = d.string()
	return t
}

func (d *decoder) behavior() *trait.Behavior {
	b := &trait.Behavior{Trait: d.traitInfo()}
	b.Name = d.string()
	b.Flags = trait.UnpackFlags(d.uint32())
	b.PrevFlags = trait.UnpackFlags(d.uint32())

	b.Return.Trait = d.traitInfo()
	b.Return.Type = trait.DataType(d.string())

	if n := d.count(); n > 0 {
		b.Params = make([]trait.Parameter, n)
		for i := range b.Params {
			p := &b.Params[i]
			p.Trait = d.traitInfo()
			p.Type = trait.DataType(d.string())
			p.Name = d.string()
			p.Direction = trait.UnpackDirection(d.uint32())
		}
	}

	if n := d.count(); n > 0 {
		b.Exceptions = make(trait.ThroweeTable, n)
		for range n {
			key := d.string()
			x := trait.Throwee{Trait: d.traitInfo()}
			x.Type = trait.DataType(d.string())
			x.Exists = trait.UnpackExistence(d.uint32())
			b.Exceptions[key] = x
		}
	}

	if n := d.count(); n > 0 {
		b.Scripts = make([]trait.Implementation, n)
		for i := range b.Scripts {
			s := &b.Scripts[i]
			s.Trait = d.traitInfo()
			s.Language = d.string()
			s.Script = d.string()
		}
	}

	b.OverrideBase = d.bool()
	b.BaseLevelImpl = d.count()
	if d.err == nil && b.BaseLevelImpl > len(b.Scripts) {
		d.fail(fmt.Errorf("%w: base implementation count %d exceeds %d scripts", ErrCorrupt, b.BaseLevelImpl, len(b.Scripts)))
	}
	return b
}

func (d *decoder) preamble() {
	var m [len(magic)]byte
	d.full(m[:])
	if d.err == nil && string(m[:]) != magic {
		d.fail(fmt.Errorf("%w: bad magic %q", ErrCorrupt, m[:]))
	}
	if v := d.byte(); d.err == nil && v != version {
		d.fail(fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v))
	}
}

func (d *decoder) finish(what string) error {
	if d.err == nil {
		return nil
	}
	if errors.Is(d.err, io.EOF) || errors.Is(d.err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("decode %s: %w: truncated", what, ErrCorrupt)
	}
	return fmt.Errorf("decode %s: %w", what, d.err)
}

// EncodeBehavior writes b in binary form.
func EncodeBehavior(w io.Writer, b *trait.Behavior) error {
	e := &encoder{buf: []byte(magic)}
	e.byte(version)
	e.behavior(b)
	if _, err := w.Write(e.buf); err != nil {
		return fmt.Errorf("encode behavior %s: %w", b.Signature(), err)
	}
	return nil
}

// DecodeBehavior reads a behavior written by EncodeBehavior.
func DecodeBehavior(r io.Reader) (*trait.Behavior, error) {
	d := newDecoder(r)
	d.preamble()
	b := d.behavior()
	if err := d.finish("behavior"); err != nil {
		return nil, err
	}
	return b, nil
}

// EncodeComponent writes c's facts and behaviors in binary form.
func EncodeComponent(w io.Writer, c *trait.Component) error {
	e := &encoder{buf: []byte(magic)}
	e.byte(version)
	e.string(c.Name)
	e.string(c.Super)
	e.byte(byte(c.Mode))
	e.byte(byte(c.ExtractAs))
	var facts byte
	if c.Global {
		facts |= factGlobal
	}
	if c.Remote {
		facts |= factRemote
	}
	if c.Signature {
		facts |= factSignature
	}
	e.byte(facts)

	behaviors := c.Behaviors()
	e.count(len(behaviors))
	for _, b := range behaviors {
		e.behavior(b)
	}
	if _, err := w.Write(e.buf); err != nil {
		return fmt.Errorf("encode component %s: %w", c.Name, err)
	}
	return nil
}

// DecodeComponent reads a component written by EncodeComponent. The
// options configure the returned component.
func DecodeComponent(r io.Reader, opts ...trait.ComponentOption) (*trait.Component, error) {
	d := newDecoder(r)
	d.preamble()
	facts := trait.Facts{Name: d.string(), Super: d.string()}
	facts.Mode = d.mode()
	facts.ExtractAs = d.mode()
	bits := d.byte()
	facts.Global = bits&factGlobal != 0
	facts.Remote = bits&factRemote != 0
	facts.Signature = bits&factSignature != 0

	n := d.count()
	behaviors := make([]*trait.Behavior, 0, n)
	for range n {
		behaviors = append(behaviors, d.behavior())
	}
	if err := d.finish("component"); err != nil {
		return nil, err
	}

	c := trait.NewComponent(facts, opts...)
	for _, b := range behaviors {
		if err := c.Add(b); err != nil {
			return nil, fmt.Errorf("decode component %s: %w: %v", facts.Name, ErrCorrupt, err)
		}
	}
	return c, nil
}
