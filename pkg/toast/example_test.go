package toast_test

import (
	"fmt"
	"time"

	"github.com/vango-dev/toastkit/pkg/toast"
	"github.com/vango-dev/toastkit/pkg/toasttest"
)

// A connectivity listener keeps one sticky toast while offline and
// replaces it with a short-lived one when the connection returns.
func Example_connectivity() {
	h, err := toasttest.New(nil)
	if err != nil {
		panic(err)
	}
	defer h.Close()

	toasts := h.Registry.MustUse("")
	var offlineID toast.ID

	goOffline := func() {
		toasts.Add("You're offline.", func(id toast.ID) {
			offlineID = id
		}, toast.WithAppearance(toast.AppearanceWarning), toast.WithAutoDismiss(false))
	}
	goOnline := func() {
		toasts.Remove(offlineID, nil)
		toasts.Add("You're back online.", nil,
			toast.WithAppearance(toast.AppearanceInfo),
			toast.WithAutoDismissAfter(2*time.Second))
	}

	goOffline()
	h.Advance(10 * time.Second)
	fmt.Println(h.IDs())

	goOnline()
	h.Settle()
	fmt.Println(h.IDs())

	h.RunUntilIdle(time.Minute)
	fmt.Println(len(h.IDs()))
	// Output:
	// [toast-1]
	// [toast-2]
	// 0
}

func ExampleHandle_Update() {
	h, err := toasttest.New(nil)
	if err != nil {
		panic(err)
	}
	defer h.Close()

	id := h.Toasts.Info("Uploading", toast.WithField("progress", 0))
	h.Toasts.Update(id, nil, toast.WithField("progress", 100), toast.WithAppearance(toast.AppearanceSuccess))

	rec := h.Toasts.Toasts()[0]
	progress, _ := rec.Field("progress")
	fmt.Println(rec.ID, rec.Appearance, rec.Content, progress)
	// Output: toast-1 success Uploading 100
}
