// Package toast manages stacks of transient notifications.
//
// A Provider owns one named stack (a channel). Application code anywhere
// in the program obtains a Handle for that channel and adds, updates or
// removes toasts; the presentation layer reads the Stage to learn which
// toasts are visible and which transition phase each one is in.
//
// # Providing a Channel
//
//	p, err := toast.Provide(&toast.Config{
//	    AutoDismiss:        true,
//	    AutoDismissTimeout: 5 * time.Second,
//	    Placement:          toast.PlacementTopRight,
//	})
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
// # Using a Channel
//
//	toasts := toast.MustUse("")
//	id := toasts.Success("Project deleted")
//
//	toasts.Add("Offline", func(id toast.ID) {
//	    offlineID = id
//	}, toast.WithAppearance(toast.AppearanceInfo), toast.WithAutoDismiss(false))
//
// Use returns an error, and MustUse panics, when no Provider exists for the
// requested channel. A missing Provider is a wiring mistake and would
// otherwise hide every notification silently.
//
// # Ordering and Callbacks
//
// Mutations are applied immediately: Has and Toasts observe them as soon
// as the call returns. Completion callbacks and subscriber notifications
// run on a later turn of the provider's event loop, in the order the
// mutations happened.
//
// # Lifecycle
//
// Each visible toast is driven by a Controller through the phases
// entering, entered, exiting and exited. The auto-dismiss countdown only
// runs while a toast is entered, and pauses while the pointer hovers over
// it. Removing a toast from the stack starts its exit transition; the Stage
// keeps it visible until the transition completes.
package toast
