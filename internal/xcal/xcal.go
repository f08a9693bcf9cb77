// Package xcal converts iCalendar objects to and from their RFC 6321 XML
// representation.
package xcal

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/emersion/go-ical"
)

// Namespace is the xCal namespace
const Namespace = "urn:ietf:params:xml:ns:icalendar-2.0"

// Element names
const (
	TagICalendar  = "icalendar"
	TagProperties = "properties"
	TagComponents = "components"
	TagParameters = "parameters"
)

// Value type elements
const (
	TypeText     = "text"
	TypeDate     = "date"
	TypeDateTime = "date-time"
	TypeRecur    = "recur"
	TypeInteger  = "integer"
	TypeURI      = "uri"
	TypeUnknown  = "unknown"
)

const (
	icalDate     = "20060102"
	icalDateTime = "20060102T150405Z"
	icalLocal    = "20060102T150405"
	xmlDate      = "2006-01-02"
	xmlDateTime  = "2006-01-02T15:04:05Z"
	xmlLocal     = "2006-01-02T15:04:05"
)

// defaultTypes is the value type of a property without a VALUE parameter
var defaultTypes = map[string]string{
	ical.PropDateTimeStart:   TypeDateTime,
	ical.PropDateTimeEnd:     TypeDateTime,
	ical.PropDateTimeStamp:   TypeDateTime,
	ical.PropCreated:         TypeDateTime,
	ical.PropLastModified:    TypeDateTime,
	ical.PropRecurrenceID:    TypeDateTime,
	ical.PropExceptionDates:  TypeDateTime,
	ical.PropRecurrenceDates: TypeDateTime,
	ical.PropRecurrenceRule:  TypeRecur,
	ical.PropSequence:        TypeInteger,
	ical.PropPriority:        TypeInteger,
	ical.PropUID:             TypeText,
	ical.PropSummary:         TypeText,
	ical.PropDescription:     TypeText,
	ical.PropLocation:        TypeText,
	ical.PropProductID:       TypeText,
	ical.PropVersion:         TypeText,
	ical.PropCalendarScale:   TypeText,
	ical.PropMethod:          TypeText,
	ical.PropStatus:          TypeText,
	ical.PropTransparency:    TypeText,
	ical.PropCategories:      TypeText,
	ical.PropComment:         TypeText,
	ical.PropClass:           TypeText,
	ical.PropURL:             TypeURI,
	ical.PropTimezoneID:      TypeText,
}

// Render converts a calendar to an xCal document
func Render(cal *ical.Calendar) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(TagICalendar)
	root.CreateAttr("xmlns", Namespace)
	if cal != nil {
		root.AddChild(componentElement(cal.Component))
	}
	return doc
}

// Write renders the calendar as indented xCal to w
func Write(w io.Writer, cal *ical.Calendar) error {
	doc := Render(cal)
	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

func componentElement(comp *ical.Component) *etree.Element {
	elem := etree.NewElement(strings.ToLower(comp.Name))

	if len(comp.Props) > 0 {
		props := elem.CreateElement(TagProperties)
		for _, name := range sortedNames(comp.Props) {
			for _, prop := range comp.Props[name] {
				props.AddChild(propertyElement(prop))
			}
		}
	}

	if len(comp.Children) > 0 {
		children := elem.CreateElement(TagComponents)
		for _, child := range comp.Children {
			children.AddChild(componentElement(child))
		}
	}

	return elem
}

func propertyElement(prop ical.Prop) *etree.Element {
	elem := etree.NewElement(strings.ToLower(prop.Name))

	var params *etree.Element
	for _, name := range sortedNames(prop.Params) {
		// the value element carries the type
		if strings.EqualFold(name, ical.ParamValue) {
			continue
		}
		if params == nil {
			params = elem.CreateElement(TagParameters)
		}
		param := params.CreateElement(strings.ToLower(name))
		for _, v := range prop.Params[name] {
			param.CreateElement(TypeText).SetText(v)
		}
	}

	typ := valueType(prop)
	switch typ {
	case TypeRecur:
		recur := elem.CreateElement(TypeRecur)
		for _, part := range strings.Split(prop.Value, ";") {
			key, value, ok := strings.Cut(part, "=")
			if !ok {
				continue
			}
			key = strings.ToLower(key)
			for _, v := range strings.Split(value, ",") {
				if key == "until" {
					v = toXMLTime(v)
				}
				recur.CreateElement(key).SetText(v)
			}
		}
	case TypeDate, TypeDateTime:
		for _, v := range strings.Split(prop.Value, ",") {
			elem.CreateElement(typ).SetText(toXMLTime(v))
		}
	case TypeText:
		text, err := prop.Text()
		if err != nil {
			text = prop.Value
		}
		elem.CreateElement(typ).SetText(text)
	default:
		elem.CreateElement(typ).SetText(prop.Value)
	}

	return elem
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func valueType(prop ical.Prop) string {
	if v := prop.Params.Get(ical.ParamValue); v != "" {
		return strings.ToLower(v)
	}
	if typ, ok := defaultTypes[prop.Name]; ok {
		return typ
	}
	return TypeUnknown
}

// toXMLTime rewrites a basic-format iCalendar date or date-time in the
// extended format xCal uses; other values pass through unchanged
func toXMLTime(v string) string {
	if t, err := time.Parse(icalDate, v); err == nil {
		return t.Format(xmlDate)
	}
	if t, err := time.Parse(icalDateTime, v); err == nil {
		return t.Format(xmlDateTime)
	}
	if t, err := time.Parse(icalLocal, v); err == nil {
		return t.Format(xmlLocal)
	}
	return v
}

func fromXMLTime(v string) string {
	if t, err := time.Parse(xmlDate, v); err == nil {
		return t.Format(icalDate)
	}
	if t, err := time.Parse(xmlDateTime, v); err == nil {
		return t.Format(icalDateTime)
	}
	if t, err := time.Parse(xmlLocal, v); err == nil {
		return t.Format(icalLocal)
	}
	return v
}

// Read parses an xCal document from r
func Read(r io.Reader) (*ical.Calendar, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("read xcal: %w", err)
	}
	return Parse(doc)
}

// Parse converts an xCal document back to a calendar. Only the first
// vcalendar element is read.
func Parse(doc *etree.Document) (*ical.Calendar, error) {
	if doc == nil || doc.Root() == nil {
		return nil, fmt.Errorf("empty document")
	}

	root := doc.Root()
	if root.Tag != TagICalendar {
		return nil, fmt.Errorf("invalid root tag: %s", root.Tag)
	}

	elem := root.SelectElement(strings.ToLower(ical.CompCalendar))
	if elem == nil {
		return nil, fmt.Errorf("missing %s element", strings.ToLower(ical.CompCalendar))
	}

	comp, err := parseComponent(elem)
	if err != nil {
		return nil, err
	}
	return &ical.Calendar{Component: comp}, nil
}

func parseComponent(elem *etree.Element) (*ical.Component, error) {
	comp := ical.NewComponent(strings.ToUpper(elem.Tag))

	if props := elem.SelectElement(TagProperties); props != nil {
		for _, propElem := range props.ChildElements() {
			prop, err := parseProperty(propElem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", comp.Name, err)
			}
			comp.Props.Add(prop)
		}
	}

	if children := elem.SelectElement(TagComponents); children != nil {
		for _, childElem := range children.ChildElements() {
			child, err := parseComponent(childElem)
			if err != nil {
				return nil, err
			}
			comp.Children = append(comp.Children, child)
		}
	}

	return comp, nil
}

func parseProperty(elem *etree.Element) (*ical.Prop, error) {
	prop := ical.NewProp(strings.ToUpper(elem.Tag))

	var values []string
	var typ string
	for _, child := range elem.ChildElements() {
		if child.Tag == TagParameters {
			for _, param := range child.ChildElements() {
				for _, v := range param.ChildElements() {
					prop.Params.Add(strings.ToUpper(param.Tag), v.Text())
				}
			}
			continue
		}

		if typ != "" && child.Tag != typ {
			return nil, fmt.Errorf("property %s mixes %s and %s values", prop.Name, typ, child.Tag)
		}
		typ = child.Tag

		switch typ {
		case TypeRecur:
			values = append(values, recurValue(child))
		case TypeDate, TypeDateTime:
			values = append(values, fromXMLTime(strings.TrimSpace(child.Text())))
		default:
			values = append(values, child.Text())
		}
	}

	if typ == "" {
		return nil, fmt.Errorf("property %s has no value", prop.Name)
	}
	if def, ok := defaultTypes[prop.Name]; typ != TypeUnknown && ((ok && typ != def) || (!ok && typ != TypeText)) {
		prop.Params.Set(ical.ParamValue, strings.ToUpper(typ))
	}
	if typ == TypeText && len(values) == 1 {
		prop.SetText(values[0])
	} else {
		prop.Value = strings.Join(values, ",")
	}
	return prop, nil
}

// recurValue joins recur parts back into an RRULE value, keeping the order
// of first appearance and merging repeated parts into comma lists
func recurValue(elem *etree.Element) string {
	var order []string
	parts := make(map[string][]string)
	for _, part := range elem.ChildElements() {
		key := strings.ToUpper(part.Tag)
		v := strings.TrimSpace(part.Text())
		if key == "UNTIL" {
			v = fromXMLTime(v)
		}
		if _, ok := parts[key]; !ok {
			order = append(order, key)
		}
		parts[key] = append(parts[key], v)
	}

	out := make([]string, 0, len(order))
	for _, key := range order {
		out = append(out, key+"="+strings.Join(parts[key], ","))
	}
	return strings.Join(out, ";")
}
