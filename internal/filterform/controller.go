// Package filterform implements the filter form's checkbox cascade: the
// "all categories" and "all subcategories" toggles, per-category visibility
// of subcategories, and the submit gate that blocks an empty subcategory
// selection.
//
// The Controller is host-agnostic. It operates on plain control values that a
// host (the rendered page, a test, or ParseMarkup) hands it, and talks back
// through a Notifier and a Submitter.
package filterform

import (
	"net/url"
	"sync"
)

// Notifier shows a user-visible message.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify calls f(message).
func (f NotifierFunc) Notify(message string) { f(message) }

// Submitter performs the form's native submission with the given payload.
type Submitter interface {
	Submit(payload url.Values) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(payload url.Values) error

// Submit calls f(payload).
func (f SubmitterFunc) Submit(payload url.Values) error { return f(payload) }

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets the message sink used when a submission is blocked.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithSubmitter sets the form submission sink.
func WithSubmitter(s Submitter) Option {
	return func(c *Controller) {
		if s != nil {
			c.submitter = s
		}
	}
}

// Controller owns the filter form's interaction state.
type Controller struct {
	mu        sync.Mutex
	c         Controls
	notifier  Notifier
	submitter Submitter
	submitted bool
}

// New binds a controller to the controls and applies the initial cascade.
func New(controls Controls, opts ...Option) (*Controller, error) {
	if err := controls.validate(); err != nil {
		return nil, err
	}
	ctrl := &Controller{
		c:         controls,
		notifier:  NotifierFunc(func(string) {}),
		submitter: SubmitterFunc(func(url.Values) error { return nil }),
	}
	for _, opt := range opts {
		opt(ctrl)
	}
	ctrl.Init()
	return ctrl, nil
}

// Init re-applies the cascade from the current control values. It is
// idempotent.
func (ctrl *Controller) Init() {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	ctrl.applyAllCategories()
	ctrl.applyAllSubcategories()
}

// SetAllCategories handles a change of the "all categories" toggle.
func (ctrl *Controller) SetAllCategories(checked bool) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	if ctrl.c.AllCategories.Disabled {
		return ErrDisabledControl
	}
	ctrl.c.AllCategories.Checked = checked
	if checked {
		ctrl.applyAllCategories()
		return nil
	}
	ctrl.c.CategoryList.Hidden = false
	for _, cb := range ctrl.c.Categories {
		cb.Checked = true
		cb.Disabled = false
	}
	ctrl.c.AllSubcategories.Disabled = false
	// A deck without categories cannot leave the toggle off.
	ctrl.autoCorrect()
	ctrl.recomputeSubcategories()
	return nil
}

// SetCategory handles a change of one category checkbox.
func (ctrl *Controller) SetCategory(value string, checked bool) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	cb := ctrl.category(value)
	if cb == nil {
		return ErrUnknownControl
	}
	if cb.Disabled {
		return ErrDisabledControl
	}
	cb.Checked = checked
	ctrl.autoCorrect()
	ctrl.recomputeSubcategories()
	return nil
}

// SetAllSubcategories handles a change of the "all subcategories" toggle.
func (ctrl *Controller) SetAllSubcategories(checked bool) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	if ctrl.c.AllSubcategories.Disabled {
		return ErrDisabledControl
	}
	ctrl.c.AllSubcategories.Checked = checked
	if checked {
		ctrl.c.SubcategoryList.Hidden = true
		return nil
	}
	ctrl.c.SubcategoryList.Hidden = false
	for _, cb := range ctrl.c.Subcategories {
		if !cb.Disabled {
			cb.Checked = true
		}
	}
	return nil
}

// SetSubcategory handles a change of one subcategory checkbox. Subcategory
// names are only unique within their category.
func (ctrl *Controller) SetSubcategory(category, value string, checked bool) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	var cb *Checkbox
	for _, s := range ctrl.c.Subcategories {
		if s.Owner == category && s.Value == value {
			cb = s
			break
		}
	}
	if cb == nil {
		return ErrUnknownControl
	}
	if cb.Disabled {
		return ErrDisabledControl
	}
	cb.Checked = checked
	return nil
}

// SetKeywords updates the keyword field. Keywords never affect validity.
func (ctrl *Controller) SetKeywords(value string) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	ctrl.c.Keywords.Value = value
}

// SetIncludeImages updates the optional image toggle.
func (ctrl *Controller) SetIncludeImages(checked bool) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	if ctrl.c.AllImages == nil {
		return ErrUnknownControl
	}
	if ctrl.c.AllImages.Disabled {
		return ErrDisabledControl
	}
	ctrl.c.AllImages.Checked = checked
	return nil
}

// Validate reports whether the form may be submitted. When it may not, the
// Notifier receives MessageSelectSubcategory. No control state changes.
func (ctrl *Controller) Validate() bool {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	return ctrl.validate()
}

// Submit handles a native submit action. It returns false when the
// submission was blocked.
func (ctrl *Controller) Submit() (bool, error) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	if !ctrl.validate() {
		return false, nil
	}
	return ctrl.submit()
}

// KeywordKeyDown handles a key press in the keyword field. Enter is always
// consumed and routed through validation; any other key is left to the
// platform. The first return value reports whether the default action was
// prevented.
func (ctrl *Controller) KeywordKeyDown(key string) (bool, error) {
	if key != "Enter" {
		return false, nil
	}
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	if !ctrl.validate() {
		return true, nil
	}
	_, err := ctrl.submit()
	return true, err
}

// Submitted reports whether a submission has been handed to the Submitter.
func (ctrl *Controller) Submitted() bool {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	return ctrl.submitted
}

// Payload returns the fields a native submission would send: checked and
// enabled checkboxes, the enabled keyword field and hidden inputs.
func (ctrl *Controller) Payload() url.Values {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	return ctrl.payload()
}

// Snapshot returns a copy of every control value.
func (ctrl *Controller) Snapshot() Snapshot {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	s := Snapshot{
		AllCategories:    *ctrl.c.AllCategories,
		CategoryList:     *ctrl.c.CategoryList,
		AllSubcategories: *ctrl.c.AllSubcategories,
		SubcategoryList:  *ctrl.c.SubcategoryList,
		Keywords:         *ctrl.c.Keywords,
	}
	for _, cb := range ctrl.c.Categories {
		s.Categories = append(s.Categories, *cb)
	}
	for _, cb := range ctrl.c.Subcategories {
		s.Subcategories = append(s.Subcategories, *cb)
	}
	if ctrl.c.AllImages != nil {
		img := *ctrl.c.AllImages
		s.AllImages = &img
	}
	return s
}

func (ctrl *Controller) applyAllCategories() {
	if !ctrl.c.AllCategories.Checked {
		ctrl.c.CategoryList.Hidden = false
		for _, cb := range ctrl.c.Categories {
			cb.Disabled = false
		}
		ctrl.c.AllSubcategories.Disabled = false
		ctrl.autoCorrect()
		ctrl.recomputeSubcategories()
		return
	}
	ctrl.c.CategoryList.Hidden = true
	for _, cb := range ctrl.c.Categories {
		cb.Checked = false
		cb.Disabled = true
	}
	ctrl.c.AllSubcategories.Checked = true
	ctrl.c.AllSubcategories.Disabled = true
	ctrl.c.SubcategoryList.Hidden = true
	ctrl.recomputeSubcategories()
}

func (ctrl *Controller) applyAllSubcategories() {
	ctrl.c.SubcategoryList.Hidden = ctrl.c.AllSubcategories.Checked
}

// autoCorrect turns the "all categories" toggle back on when it is off and
// no category remains selected.
func (ctrl *Controller) autoCorrect() {
	if ctrl.c.AllCategories.Checked {
		return
	}
	for _, cb := range ctrl.c.Categories {
		if cb.Checked {
			return
		}
	}
	ctrl.c.AllCategories.Checked = true
	ctrl.applyAllCategories()
}

// recomputeSubcategories shows subcategories of selected categories. While
// the "all categories" toggle is on every subcategory is in scope, but the
// controls stay disabled because the toggle alone carries the selection.
func (ctrl *Controller) recomputeSubcategories() {
	all := ctrl.c.AllCategories.Checked
	for _, sub := range ctrl.c.Subcategories {
		switch {
		case all:
			sub.Hidden = false
			sub.Disabled = true
		case ctrl.categoryChecked(sub.Owner):
			sub.Hidden = false
			sub.Disabled = false
		default:
			sub.Hidden = true
			sub.Checked = false
			sub.Disabled = true
		}
	}
}

func (ctrl *Controller) validate() bool {
	if ctrl.c.AllCategories.Checked || ctrl.c.AllSubcategories.Checked {
		return true
	}
	for _, sub := range ctrl.c.Subcategories {
		if sub.Checked && !sub.Disabled {
			return true
		}
	}
	ctrl.notifier.Notify(MessageSelectSubcategory)
	return false
}

func (ctrl *Controller) submit() (bool, error) {
	if ctrl.submitted {
		return false, nil
	}
	ctrl.submitted = true
	if err := ctrl.submitter.Submit(ctrl.payload()); err != nil {
		ctrl.submitted = false
		return false, err
	}
	return true, nil
}

func (ctrl *Controller) payload() url.Values {
	out := url.Values{}
	for _, h := range ctrl.c.Hidden {
		out.Add(h.Name, h.Value)
	}
	if kw := ctrl.c.Keywords; !kw.Disabled && kw.Name != "" {
		out.Set(kw.Name, kw.Value)
	}
	add := func(cb *Checkbox) {
		if cb != nil && cb.Checked && !cb.Disabled && cb.Name != "" {
			out.Add(cb.Name, cb.submitValue())
		}
	}
	add(ctrl.c.AllCategories)
	for _, cb := range ctrl.c.Categories {
		add(cb)
	}
	add(ctrl.c.AllSubcategories)
	for _, cb := range ctrl.c.Subcategories {
		add(cb)
	}
	add(ctrl.c.AllImages)
	return out
}

func (ctrl *Controller) category(value string) *Checkbox {
	for _, cb := range ctrl.c.Categories {
		if cb.Value == value {
			return cb
		}
	}
	return nil
}

func (ctrl *Controller) categoryChecked(value string) bool {
	cb := ctrl.category(value)
	return cb != nil && cb.Checked && !cb.Disabled
}
