package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFocusBusFanOut(t *testing.T) {
	b := NewFocusBus()

	var first, second []FocusRequest
	b.Subscribe(func(req FocusRequest) { first = append(first, req) })
	b.Subscribe(func(req FocusRequest) { second = append(second, req) })

	req := FocusRequest{ItemID: "a", Date: "2024-03-10"}
	b.Publish(req)

	assert.Equal(t, []FocusRequest{req}, first)
	assert.Equal(t, []FocusRequest{req}, second)
}

func TestFocusBusUnsubscribe(t *testing.T) {
	b := NewFocusBus()

	var got int
	unsubscribe := b.Subscribe(func(FocusRequest) { got++ })

	b.Publish(FocusRequest{ItemID: "a"})
	unsubscribe()
	b.Publish(FocusRequest{ItemID: "b"})

	assert.Equal(t, 1, got)
}

func TestFocusBusNoSubscribers(t *testing.T) {
	b := NewFocusBus()
	b.Publish(FocusRequest{ItemID: "a"}) // must not panic
}
