// Package ecml compiles project schemas into EcML, the XML dialect
// describing forms for the EpiCollect mobile app, decodes submitted
// form data into observations and exports stored observations for
// download.
package ecml

import (
	"bytes"
	"encoding/xml"
	"strconv"
)

// Attr is a single ordered XML attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of an EcML document. Documents are built as element
// trees because both the form output and the entry export use tag names
// derived from schema data at runtime.
type Element struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Element
}

// NewElement creates an element with the given tag and attributes.
func NewElement(tag string, attrs ...Attr) *Element {
	return &Element{Tag: tag, Attrs: attrs}
}

// SetAttr sets an attribute, replacing an existing one with the same name.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.Attrs {
		if a.Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// Attr returns the value of the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Append adds children at the end of the element.
func (e *Element) Append(children ...*Element) {
	e.Children = append(e.Children, children...)
}

// Insert places a child at position i.
func (e *Element) Insert(i int, child *Element) {
	e.Children = append(e.Children, nil)
	copy(e.Children[i+1:], e.Children[i:])
	e.Children[i] = child
}

// Find returns the first direct child with the given tag, or nil.
func (e *Element) Find(tag string) *Element {
	for _, c := range e.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// FindAll returns all direct children with the given tag.
func (e *Element) FindAll(tag string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// MarshalXML implements xml.Marshaler. The element's own tag wins over
// whatever name the encoder suggests.
func (e *Element) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Tag}}
	for _, a := range e.Attrs {
		start.Attr = append(start.Attr, xml.Attr{
			Name:  xml.Name{Local: a.Name},
			Value: a.Value,
		})
	}

	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if e.Text != "" {
		if err := enc.EncodeToken(xml.CharData(e.Text)); err != nil {
			return err
		}
	}
	for _, c := range e.Children {
		if err := c.MarshalXML(enc, xml.StartElement{}); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

// XML serialises the element tree.
func (e *Element) XML() ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := e.MarshalXML(enc, xml.StartElement{}); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// newLabel creates a <label> element for a field.
func newLabel(text string) *Element {
	label := NewElement("label")
	label.Text = text
	return label
}

// newItem creates an <item> element used with select fields.
func newItem(label string, value string) *Element {
	item := NewElement("item")
	item.Append(newLabel(label))

	valueEl := NewElement("value")
	valueEl.Text = value
	item.Append(valueEl)

	return item
}

func formatUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
