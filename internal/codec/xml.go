package codec

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"

	"github.com/roach88/traitc/internal/trait"
)

type xmlTrait struct {
	UID         string   `xml:"uid,attr,omitempty"`
	Mode        string   `xml:"mode,attr"`
	Origin      string   `xml:"origin,attr,omitempty"`
	Manual      bool     `xml:"manual,attr,omitempty"`
	Integration string   `xml:"integration,attr,omitempty"`
	Interfaces  []string `xml:"interface,omitempty"`
	Tip         string   `xml:"tip,omitempty"`
	Text        string   `xml:"text,omitempty"`
}

type xmlFlags struct {
	Desc  string `xml:"desc,attr,omitempty"`
	Value string `xml:",chardata"`
}

type xmlReturn struct {
	xmlTrait
	Type string `xml:"type,attr"`
}

type xmlParam struct {
	xmlTrait
	Type      string `xml:"type,attr"`
	Name      string `xml:"name,attr"`
	Direction string `xml:"direction,attr"`
}

type xmlException struct {
	Key string `xml:"name,attr"`
	xmlTrait
	Type   string `xml:"type,attr"`
	Exists string `xml:"exists,attr"`
}

type xmlImplementation struct {
	xmlTrait
	Language string `xml:"language,attr"`
	Script   string `xml:"script"`
}

type xmlBehavior struct {
	XMLName xml.Name `xml:"behavior"`
	xmlTrait
	Name         string              `xml:"name"`
	Flags        xmlFlags            `xml:"flags"`
	PrevFlags    xmlFlags            `xml:"prev-flags"`
	Return       xmlReturn           `xml:"return-value"`
	Params       []xmlParam          `xml:"params>param"`
	Exceptions   []xmlException      `xml:"exceptions>exception"`
	Scripts      []xmlImplementation `xml:"implementation"`
	OverrideBase bool                `xml:"override-base,omitempty"`
	BaseImpls    int                 `xml:"base-implementations,omitempty"`
}

type xmlComponent struct {
	XMLName   xml.Name      `xml:"component"`
	Name      string        `xml:"name,attr"`
	Super     string        `xml:"super,attr,omitempty"`
	Mode      string        `xml:"mode,attr"`
	ExtractAs string        `xml:"extract-as,attr,omitempty"`
	Global    bool          `xml:"global,attr,omitempty"`
	Remote    bool          `xml:"remote,attr,omitempty"`
	Signature bool          `xml:"signature,attr,omitempty"`
	Behaviors []xmlBehavior `xml:"behavior"`
}

func word(w uint32) string {
	return fmt.Sprintf("0x%08x", w)
}

func parseWord(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("flag word %q: %w", s, err)
	}
	return uint32(v), nil
}

func toXMLTrait(t trait.Trait) xmlTrait {
	x := xmlTrait{
		Mode:        t.Mode.String(),
		Manual:      t.Origin.Manual,
		Integration: t.Origin.Integration,
		Interfaces:  t.Origin.Interfaces,
		Tip:         t.Tip,
		Text:        t.Text,
	}
	if t.HasUID() {
		x.UID = t.UID.String()
	}
	if t.Origin.Level != trait.OriginNone {
		x.Origin = t.Origin.Level.String()
	}
	return x
}

func fromXMLTrait(x xmlTrait) (trait.Trait, error) {
	mode, err := trait.ParseMode(x.Mode)
	if err != nil {
		return trait.Trait{}, err
	}
	t := trait.Trait{
		Mode: mode,
		Origin: trait.Origin{
			Level:       trait.ParseOriginLevel(x.Origin),
			Manual:      x.Manual,
			Interfaces:  x.Interfaces,
			Integration: x.Integration,
		},
		Tip:  x.Tip,
		Text: x.Text,
	}
	if x.UID != "" {
		if t.UID, err = uuid.Parse(x.UID); err != nil {
			return trait.Trait{}, fmt.Errorf("uid %q: %w", x.UID, err)
		}
	}
	return t, nil
}

func toXMLBehavior(b *trait.Behavior) xmlBehavior {
	x := xmlBehavior{
		xmlTrait:     toXMLTrait(b.Trait),
		Name:         b.Name,
		Flags:        xmlFlags{Desc: b.Flags.Describe(false), Value: word(b.Flags.Pack())},
		PrevFlags:    xmlFlags{Desc: b.PrevFlags.Describe(false), Value: word(b.PrevFlags.Pack())},
		Return:       xmlReturn{xmlTrait: toXMLTrait(b.Return.Trait), Type: string(b.Return.Type)},
		OverrideBase: b.OverrideBase,
		BaseImpls:    b.BaseLevelImpl,
	}
	for _, p := range b.Params {
		x.Params = append(x.Params, xmlParam{
			xmlTrait:  toXMLTrait(p.Trait),
			Type:      string(p.Type),
			Name:      p.Name,
			Direction: word(trait.PackDirection(p.Direction)),
		})
	}
	for _, k := range b.Exceptions.Keys() {
		e := b.Exceptions[k]
		x.Exceptions = append(x.Exceptions, xmlException{
			Key:      k,
			xmlTrait: toXMLTrait(e.Trait),
			Type:     string(e.Type),
			Exists:   word(trait.PackExistence(e.Exists)),
		})
	}
	for _, s := range b.Scripts {
		x.Scripts = append(x.Scripts, xmlImplementation{
			xmlTrait: toXMLTrait(s.Trait),
			Language: s.Language,
			Script:   s.Script,
		})
	}
	return x
}

func fromXMLBehavior(x xmlBehavior) (*trait.Behavior, error) {
	var err error
	if x.BaseImpls < 0 || x.BaseImpls > len(x.Scripts) {
		return nil, fmt.Errorf("behavior %s: %w: base implementation count %d outside %d scripts",
			x.Name, ErrCorrupt, x.BaseImpls, len(x.Scripts))
	}
	b := &trait.Behavior{Name: x.Name, OverrideBase: x.OverrideBase, BaseLevelImpl: x.BaseImpls}
	if b.Trait, err = fromXMLTrait(x.xmlTrait); err != nil {
		return nil, fmt.Errorf("behavior %s: %w", x.Name, err)
	}
	flags, err := parseWord(x.Flags.Value)
	if err != nil {
		return nil, fmt.Errorf("behavior %s: %w", x.Name, err)
	}
	prev, err := parseWord(x.PrevFlags.Value)
	if err != nil {
		return nil, fmt.Errorf("behavior %s: %w", x.Name, err)
	}
	b.Flags = trait.UnpackFlags(flags)
	b.PrevFlags = trait.UnpackFlags(prev)

	if b.Return.Trait, err = fromXMLTrait(x.Return.xmlTrait); err != nil {
		return nil, fmt.Errorf("behavior %s return: %w", x.Name, err)
	}
	b.Return.Type = trait.DataType(x.Return.Type)

	for _, xp := range x.Params {
		p := trait.Parameter{Type: trait.DataType(xp.Type), Name: xp.Name}
		if p.Trait, err = fromXMLTrait(xp.xmlTrait); err != nil {
			return nil, fmt.Errorf("behavior %s param %s: %w", x.Name, xp.Name, err)
		}
		dir, err := parseWord(xp.Direction)
		if err != nil {
			return nil, fmt.Errorf("behavior %s param %s: %w", x.Name, xp.Name, err)
		}
		p.Direction = trait.UnpackDirection(dir)
		b.Params = append(b.Params, p)
	}

	for _, xe := range x.Exceptions {
		e := trait.Throwee{Type: trait.DataType(xe.Type)}
		if e.Trait, err = fromXMLTrait(xe.xmlTrait); err != nil {
			return nil, fmt.Errorf("behavior %s exception %s: %w", x.Name, xe.Key, err)
		}
		exists, err := parseWord(xe.Exists)
		if err != nil {
			return nil, fmt.Errorf("behavior %s exception %s: %w", x.Name, xe.Key, err)
		}
		e.Exists = trait.UnpackExistence(exists)
		if b.Exceptions == nil {
			b.Exceptions = make(trait.ThroweeTable, len(x.Exceptions))
		}
		b.Exceptions[xe.Key] = e
	}

	for _, xs := range x.Scripts {
		s := trait.Implementation{Language: xs.Language, Script: xs.Script}
		if s.Trait, err = fromXMLTrait(xs.xmlTrait); err != nil {
			return nil, fmt.Errorf("behavior %s implementation: %w", x.Name, err)
		}
		b.Scripts = append(b.Scripts, s)
	}
	return b, nil
}

// MarshalBehaviorXML returns the indented XML form of b.
func MarshalBehaviorXML(b *trait.Behavior) ([]byte, error) {
	out, err := xml.MarshalIndent(toXMLBehavior(b), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal behavior %s: %w", b.Signature(), err)
	}
	return append(out, '\n'), nil
}

// UnmarshalBehaviorXML parses a behavior produced by MarshalBehaviorXML.
func UnmarshalBehaviorXML(data []byte) (*trait.Behavior, error) {
	var x xmlBehavior
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("unmarshal behavior: %w", err)
	}
	return fromXMLBehavior(x)
}

// WriteComponentXML writes c as an XML document.
func WriteComponentXML(w io.Writer, c *trait.Component) error {
	x := xmlComponent{
		Name:      c.Name,
		Super:     c.Super,
		Mode:      c.Mode.String(),
		Global:    c.Global,
		Remote:    c.Remote,
		Signature: c.Signature,
	}
	if c.ExtractAs.IsDelta() {
		x.ExtractAs = c.ExtractAs.String()
	}
	for _, b := range c.Behaviors() {
		x.Behaviors = append(x.Behaviors, toXMLBehavior(b))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(x); err != nil {
		return fmt.Errorf("write component %s: %w", c.Name, err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ReadComponentXML parses a component written by WriteComponentXML.
func ReadComponentXML(r io.Reader, opts ...trait.ComponentOption) (*trait.Component, error) {
	var x xmlComponent
	if err := xml.NewDecoder(r).Decode(&x); err != nil {
		return nil, fmt.Errorf("read component: %w", err)
	}
	mode, err := trait.ParseMode(x.Mode)
	if err != nil {
		return nil, fmt.Errorf("read component %s: %w", x.Name, err)
	}
	facts := trait.Facts{
		Name:      x.Name,
		Super:     x.Super,
		Mode:      mode,
		Global:    x.Global,
		Remote:    x.Remote,
		Signature: x.Signature,
	}
	if x.ExtractAs != "" {
		if facts.ExtractAs, err = trait.ParseMode(x.ExtractAs); err != nil {
			return nil, fmt.Errorf("read component %s: %w", x.Name, err)
		}
	}

	c := trait.NewComponent(facts, opts...)
	for _, xb := range x.Behaviors {
		b, err := fromXMLBehavior(xb)
		if err != nil {
			return nil, fmt.Errorf("read component %s: %w", x.Name, err)
		}
		if err := c.Add(b); err != nil {
			return nil, fmt.Errorf("read component %s: %w", x.Name, err)
		}
	}
	return c, nil
}
