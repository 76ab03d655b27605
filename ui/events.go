package ui

import (
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// On binds a DOM event to a server handler. The client runtime forwards the
// event over the session websocket as {"type":"event","target":handler}.
//
// Usage: ui.Tag("button", ui.On("click", "buy"), ui.Text("Buy"))
func On(event, handler string) templ.Attributes {
	return templ.Attributes{
		"data-on": event + ":" + handler,
	}
}

// OnMany binds several events at once, e.g. touchstart and touchend on the
// same element.
func OnMany(bindings map[string]string) templ.Attributes {
	parts := make([]string, 0, len(bindings))
	for event, handler := range bindings {
		parts = append(parts, event+":"+handler)
	}
	sort.Strings(parts)
	return templ.Attributes{
		"data-on": strings.Join(parts, "|"),
	}
}

// StopPropagation keeps the event from reaching ancestor bindings.
func StopPropagation() templ.Attributes {
	return templ.Attributes{
		"data-stop": "true",
	}
}

// Navigate creates a client-side navigation link target.
func Navigate(path string) templ.Attributes {
	return templ.Attributes{
		"data-navigate": path,
	}
}
