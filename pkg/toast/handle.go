package toast

// Handle is the imperative API of one channel. Handles are cheap to pass
// around; all of them for the same channel operate on one Manager.
type Handle struct {
	manager *Manager
}

// Channel returns the channel name.
func (h *Handle) Channel() string {
	return h.manager.Channel()
}

// Add puts a toast on the stack and returns its ID, or "" when an explicit
// ID is already live or the channel is closed. cb runs once the new stack
// has been published.
//
//	id := toasts.Add("Saved", nil, toast.WithAppearance(toast.AppearanceSuccess))
func (h *Handle) Add(content any, cb Callback, opts ...Option) ID {
	return h.manager.Add(content, cb, opts...)
}

// Remove takes a toast off the stack. Unknown IDs are ignored.
func (h *Handle) Remove(id ID, cb Callback) {
	h.manager.Remove(id, cb)
}

// Update merges opts into a live toast. Unknown IDs are ignored.
//
//	toasts.Update(id, nil, toast.WithContent("Upload 80%"))
func (h *Handle) Update(id ID, cb Callback, opts ...Option) {
	h.manager.Update(id, cb, opts...)
}

// RemoveAll removes every toast, running each OnDismiss once.
func (h *Handle) RemoveAll() {
	h.manager.RemoveAll()
}

// Has reports whether id is on the stack.
func (h *Handle) Has(id ID) bool {
	return h.manager.Has(id)
}

// Toasts returns a snapshot of the stack.
func (h *Handle) Toasts() []Record {
	return h.manager.Toasts()
}

// Subscribe registers fn to receive the stack after every mutation.
func (h *Handle) Subscribe(fn func([]Record)) (unsubscribe func()) {
	return h.manager.Subscribe(fn)
}

// Closed reports whether the channel's Provider has been closed.
func (h *Handle) Closed() bool {
	return h.manager.Closed()
}

// Show adds a toast with the given appearance.
func (h *Handle) Show(a Appearance, content any, opts ...Option) ID {
	return h.Add(content, nil, append([]Option{WithAppearance(a)}, opts...)...)
}

// Success adds a success toast.
//
//	toasts.Success("Changes saved!")
func (h *Handle) Success(content any, opts ...Option) ID {
	return h.Show(AppearanceSuccess, content, opts...)
}

// Error adds an error toast.
//
//	toasts.Error("Failed to delete item")
func (h *Handle) Error(content any, opts ...Option) ID {
	return h.Show(AppearanceError, content, opts...)
}

// Warning adds a warning toast.
//
//	toasts.Warning("This action cannot be undone")
func (h *Handle) Warning(content any, opts ...Option) ID {
	return h.Show(AppearanceWarning, content, opts...)
}

// Info adds an info toast.
//
//	toasts.Info("New features available")
func (h *Handle) Info(content any, opts ...Option) ID {
	return h.Show(AppearanceInfo, content, opts...)
}
