// Package ui provides the small templ toolkit qpick components render with:
// elements with escaped attributes, event bindings for the client runtime,
// and shared button styling.
package ui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// Tag renders <name attrs...>children...</name>.
func Tag(name string, attrs templ.Attributes, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<"+name); err != nil {
			return err
		}
		if err := writeAttrs(w, attrs); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ">"); err != nil {
			return err
		}
		for _, c := range children {
			if c == nil {
				continue
			}
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</"+name+">")
		return err
	})
}

// Void renders a self-closing element such as <img>.
func Void(name string, attrs templ.Attributes) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<"+name); err != nil {
			return err
		}
		if err := writeAttrs(w, attrs); err != nil {
			return err
		}
		_, err := io.WriteString(w, ">")
		return err
	})
}

// Text renders escaped text.
func Text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))
		return err
	})
}

// Textf renders escaped formatted text.
func Textf(format string, args ...any) templ.Component {
	return Text(fmt.Sprintf(format, args...))
}

// Group renders components one after another.
func Group(children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, c := range children {
			if c == nil {
				continue
			}
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// If renders c only when cond holds.
func If(cond bool, c templ.Component) templ.Component {
	if !cond {
		return nil
	}
	return c
}

// Render renders c to a string.
func Render(ctx context.Context, c templ.Component) (string, error) {
	if c == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Merge combines attribute sets; later sets win, except "class" and
// "data-on" which are joined.
func Merge(sets ...templ.Attributes) templ.Attributes {
	out := templ.Attributes{}
	for _, set := range sets {
		for k, v := range set {
			prev, ok := out[k].(string)
			cur, isStr := v.(string)
			switch {
			case ok && isStr && k == "class":
				out[k] = prev + " " + cur
			case ok && isStr && k == "data-on":
				out[k] = prev + "|" + cur
			default:
				out[k] = v
			}
		}
	}
	return out
}

// Style renders an inline style from properties, sorted by name.
func Style(props map[string]string) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(":")
		sb.WriteString(props[k])
		sb.WriteString(";")
	}
	return sb.String()
}

// writeAttrs writes attributes in name order so output is stable.
// A true bool renders as a bare attribute, false or nil omits it.
func writeAttrs(w io.Writer, attrs templ.Attributes) error {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var s string
		switch v := attrs[k].(type) {
		case nil:
			continue
		case bool:
			if !v {
				continue
			}
			s = " " + k
		case string:
			s = fmt.Sprintf(` %s="%s"`, k, templ.EscapeString(v))
		default:
			s = fmt.Sprintf(` %s="%s"`, k, templ.EscapeString(fmt.Sprint(v)))
		}
		if _, err := io.WriteString(w, s); err != nil {
			return err
		}
	}
	return nil
}
