package ui

import "github.com/a-h/templ"

// ButtonVariant defines the visual style of a button.
type ButtonVariant string

const (
	ButtonPrimary   ButtonVariant = "primary"
	ButtonSecondary ButtonVariant = "secondary"
	ButtonGhost     ButtonVariant = "ghost"
)

// ButtonProps defines the properties for a Button.
type ButtonProps struct {
	// Variant defines the visual style.
	Variant ButtonVariant
	// Disabled disables the button. Disabled buttons carry no event binding.
	Disabled bool
	// FullWidth stretches the button to its container.
	FullWidth bool
	// Title is the tooltip and accessible name.
	Title string
	// Action is the server handler bound to click.
	Action string
	// Class adds extra CSS classes.
	Class string
}

// ButtonClasses returns the CSS classes for a button.
func ButtonClasses(props ButtonProps) string {
	classes := "qp-button"

	switch props.Variant {
	case ButtonSecondary:
		classes += " qp-button--secondary"
	case ButtonGhost:
		classes += " qp-button--ghost"
	default:
		classes += " qp-button--primary"
	}

	if props.FullWidth {
		classes += " qp-button--wide"
	}
	if props.Disabled {
		classes += " qp-button--disabled"
	}
	if props.Class != "" {
		classes += " " + props.Class
	}
	return classes
}

// Button renders a <button>.
func Button(props ButtonProps, children ...templ.Component) templ.Component {
	attrs := templ.Attributes{
		"type":     "button",
		"class":    ButtonClasses(props),
		"disabled": props.Disabled,
	}
	if props.Title != "" {
		attrs["title"] = props.Title
		attrs["aria-label"] = props.Title
	}
	if props.Action != "" && !props.Disabled {
		attrs = Merge(attrs, On("click", props.Action))
	}
	return Tag("button", attrs, children...)
}
