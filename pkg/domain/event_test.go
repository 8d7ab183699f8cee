package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCallback(t *testing.T) {
	cases := []struct {
		token string
		want  Callback
	}{
		{"product:p1", Callback{Action: ActionProduct, ProductID: "p1"}},
		{"add:p1:5", Callback{Action: ActionAdd, ProductID: "p1", Quantity: 5}},
		{"remove:i1", Callback{Action: ActionRemove, ItemID: "i1"}},
		{"back", Callback{Action: ActionBack}},
		{"cart", Callback{Action: ActionCart}},
		{"checkout", Callback{Action: ActionCheckout}},

		// Malformed tokens must parse to the unknown action, never fail.
		{"", Callback{}},
		{"product:", Callback{}},
		{"add:p1", Callback{}},
		{"add:p1:zero", Callback{}},
		{"add:p1:-1", Callback{}},
		{"back:extra", Callback{}},
		{"pay", Callback{}},
		{"product:p1:extra", Callback{}},
	}

	for _, tc := range cases {
		t.Run(tc.token, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseCallback(tc.token))
		})
	}
}

func TestCallbackTokenRoundTrip(t *testing.T) {
	callbacks := []Callback{
		{Action: ActionProduct, ProductID: "p1"},
		{Action: ActionAdd, ProductID: "p1", Quantity: 10},
		{Action: ActionRemove, ItemID: "i9"},
		{Action: ActionBack},
		{Action: ActionCart},
		{Action: ActionCheckout},
	}
	for _, cb := range callbacks {
		assert.Equal(t, cb, ParseCallback(cb.Token()))
	}
	assert.Equal(t, "", Callback{}.Token())
}

func TestDialogStateValid(t *testing.T) {
	for _, s := range []DialogState{
		StateStart, StateBrowsingMenu, StateViewingProduct,
		StateCart, StateAwaitingEmail, StateCompleted,
	} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, DialogState("").Valid())
	assert.False(t, DialogState("HANDLE_MENU").Valid())
}
