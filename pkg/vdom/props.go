package vdom

import "strings"

// Key sets the reconciliation key of an element. It is not rendered.
func Key(key any) Attr { return Attr{Key: "key", Value: key} }

// ID sets the id attribute.
func ID(id string) Attr { return Attr{Key: "id", Value: id} }

// Class appends classes to the class attribute.
func Class(classes ...string) Attr {
	return Attr{Key: "class", Value: strings.Join(classes, " ")}
}

// ClassIf appends class when cond holds.
func ClassIf(cond bool, class string) Attr {
	if !cond {
		return Attr{}
	}
	return Class(class)
}

// Value sets the value attribute.
func Value(v string) Attr { return Attr{Key: "value", Value: v} }

// Disabled sets the boolean disabled attribute.
func Disabled() Attr { return Attr{Key: "disabled", Value: true} }

// AttrOf sets an arbitrary attribute.
func AttrOf(key string, value any) Attr { return Attr{Key: key, Value: value} }

// On binds handler to the named event. Supported handler shapes are
// func(), func() error, func(Event), func(Event) error and func(string).
func On(event string, handler any) EventHandler {
	return EventHandler{Event: "on" + strings.ToLower(event), Handler: handler}
}

// OnClick binds a click handler.
func OnClick(handler any) EventHandler { return On("click", handler) }

// OnInput binds an input handler; string handlers receive the new value.
func OnInput(handler any) EventHandler { return On("input", handler) }
