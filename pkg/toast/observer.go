package toast

// Observer receives stack and lifecycle events, typically for metrics or
// tracing. Methods are called outside the manager's lock and must not
// block.
type Observer interface {
	// ToastAdded is called after a toast enters the stack.
	ToastAdded(channel string, rec Record)

	// ToastUpdated is called after a toast's fields change.
	ToastUpdated(channel string, rec Record)

	// ToastRemoved is called after a toast leaves the stack.
	ToastRemoved(channel string, rec Record)

	// ToastPhase is called when a toast's transition phase changes.
	ToastPhase(channel string, id ID, phase Phase)

	// ToastAutoDismissed is called when a countdown expires.
	ToastAutoDismissed(channel string, id ID)
}

// NopObserver ignores every event. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) ToastAdded(string, Record)     {}
func (NopObserver) ToastUpdated(string, Record)   {}
func (NopObserver) ToastRemoved(string, Record)   {}
func (NopObserver) ToastPhase(string, ID, Phase)  {}
func (NopObserver) ToastAutoDismissed(string, ID) {}

// Observers fans events out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	list := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) ToastAdded(channel string, rec Record) {
	for _, o := range m {
		o.ToastAdded(channel, rec)
	}
}

func (m multiObserver) ToastUpdated(channel string, rec Record) {
	for _, o := range m {
		o.ToastUpdated(channel, rec)
	}
}

func (m multiObserver) ToastRemoved(channel string, rec Record) {
	for _, o := range m {
		o.ToastRemoved(channel, rec)
	}
}

func (m multiObserver) ToastPhase(channel string, id ID, phase Phase) {
	for _, o := range m {
		o.ToastPhase(channel, id, phase)
	}
}

func (m multiObserver) ToastAutoDismissed(channel string, id ID) {
	for _, o := range m {
		o.ToastAutoDismissed(channel, id)
	}
}
