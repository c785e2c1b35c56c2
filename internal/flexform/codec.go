// Package flexform reads and writes the XML representation of nested form
// data ("flexform") stored in a single record column.
package flexform

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/BartekS5/contentmigrate/internal/tree"
)

// Prologue is prepended by Serialize when asked for.
const Prologue = `<?xml version="1.0" encoding="utf-8" standalone="yes" ?>`

const rootTag = "T3FlexForms"

// parentTags maps a parent element name to the element name used for its
// children. Children written under a mapped parent carry their key in an
// index attribute.
var parentTags = map[string]string{
	"data":     "sheet",
	"sheet":    "language",
	"language": "field",
	"el":       "field",
	"field":    "value",
	"section":  "itemType",
}

var xmlName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// Codec converts between flexform XML and trees.
type Codec struct {
	Indent string
}

// NewCodec returns a codec indenting with four spaces.
func NewCodec() *Codec {
	return &Codec{Indent: "    "}
}

// Parse decodes serialized flexform XML. Blank input yields a nil tree.
// The root element is dropped; its children become the top-level keys.
func (c *Codec) Parse(blob string) (tree.Tree, error) {
	if strings.TrimSpace(blob) == "" {
		return nil, nil
	}

	dec := xml.NewDecoder(strings.NewReader(blob))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, errors.New("flexform: no root element")
		}
		if err != nil {
			return nil, fmt.Errorf("flexform: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		_, value, err := parseElement(dec, start)
		if err != nil {
			return nil, err
		}
		if t, ok := value.(map[string]any); ok {
			return t, nil
		}
		return tree.Tree{}, nil
	}
}

func parseElement(dec *xml.Decoder, start xml.StartElement) (string, any, error) {
	key := start.Name.Local
	typ := ""
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "index":
			key = a.Value
		case "type":
			typ = a.Value
		}
	}

	var children tree.Tree
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", nil, fmt.Errorf("flexform: element %q: %w", key, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			ck, cv, err := parseElement(dec, t)
			if err != nil {
				return "", nil, err
			}
			if children == nil {
				children = tree.Tree{}
			}
			children[ck] = cv
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if children != nil {
				return key, children, nil
			}
			return key, scalar(typ, text.String()), nil
		}
	}
}

func scalar(typ, text string) any {
	switch typ {
	case "array":
		return tree.Tree{}
	case "integer":
		if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			return n
		}
	case "boolean":
		v := strings.TrimSpace(text)
		return v == "1" || strings.EqualFold(v, "true")
	}
	return text
}

// Serialize encodes t as flexform XML below a T3FlexForms root element.
func (c *Codec) Serialize(t tree.Tree, addPrologue bool) (string, error) {
	var buf bytes.Buffer
	if addPrologue {
		buf.WriteString(Prologue)
		buf.WriteString("\n")
	}
	buf.WriteString("<" + rootTag + ">\n")
	for _, k := range sortedKeys(t) {
		if err := c.writeNode(&buf, rootTag, k, t[k], 1); err != nil {
			return "", err
		}
	}
	buf.WriteString("</" + rootTag + ">")
	return buf.String(), nil
}

func (c *Codec) writeNode(buf *bytes.Buffer, parent, key string, value any, depth int) error {
	if list, ok := value.([]any); ok {
		m := make(tree.Tree, len(list))
		for i, item := range list {
			m[strconv.Itoa(i)] = item
		}
		value = m
	}

	tag, index := tagFor(parent, key)
	pad := strings.Repeat(c.Indent, depth)

	buf.WriteString(pad + "<" + tag)
	if index != "" {
		buf.WriteString(` index="`)
		if err := xml.EscapeText(buf, []byte(index)); err != nil {
			return err
		}
		buf.WriteString(`"`)
	}

	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 {
			buf.WriteString(` type="array"></` + tag + ">\n")
			return nil
		}
		buf.WriteString(">\n")
		for _, k := range sortedKeys(v) {
			if err := c.writeNode(buf, tag, k, v[k], depth+1); err != nil {
				return err
			}
		}
		buf.WriteString(pad + "</" + tag + ">\n")
		return nil
	}

	buf.WriteString(">")
	if err := xml.EscapeText(buf, []byte(text(value))); err != nil {
		return err
	}
	buf.WriteString("</" + tag + ">\n")
	return nil
}

func tagFor(parent, key string) (string, string) {
	if parent == "field" && key == "el" {
		return "el", ""
	}
	if parent == "el" && isNumeric(key) {
		return "section", key
	}
	if tag, ok := parentTags[parent]; ok {
		return tag, key
	}
	if isNumeric(key) {
		return "numIndex", key
	}
	if xmlName.MatchString(key) {
		return key, ""
	}
	return "n", key
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(x)
	}
}

func isNumeric(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func sortedKeys(t tree.Tree) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aerr := strconv.Atoi(keys[i])
		b, berr := strconv.Atoi(keys[j])
		switch {
		case aerr == nil && berr == nil:
			return a < b
		case aerr == nil:
			return true
		case berr == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}
