package filterform

import (
	"errors"
	"fmt"
)

// MessageSelectSubcategory is shown to the user when a submission is blocked.
const MessageSelectSubcategory = "Please select at least one subcategory for the selected categories"

var (
	// ErrMissingControl is returned when a required control reference is absent.
	ErrMissingControl = errors.New("filterform: missing control")
	// ErrUnknownControl is returned for events addressed to a control the
	// controller does not know.
	ErrUnknownControl = errors.New("filterform: unknown control")
	// ErrDisabledControl is returned for user events on a disabled control;
	// browsers never dispatch those.
	ErrDisabledControl = errors.New("filterform: control is disabled")
	// ErrNoSubcategorySelected is the single invalid filter state.
	ErrNoSubcategorySelected = errors.New(MessageSelectSubcategory)
)

func missing(what string) error {
	return fmt.Errorf("%w: %s", ErrMissingControl, what)
}
