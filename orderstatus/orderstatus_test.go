package orderstatus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowed(t *testing.T) {
	assert.Equal(t, []Status{Processing, Delivering, Cancelled}, Allowed(Pending))
	assert.Equal(t, []Status{Delivering, Cancelled}, Allowed(Processing))
	assert.Equal(t, []Status{Delivered, Cancelled}, Allowed(Delivering))
	assert.Equal(t, []Status{Returned}, Allowed(Delivered))
	assert.Empty(t, Allowed(Cancelled))
	assert.NotNil(t, Allowed("bogus"))
	assert.Empty(t, Allowed("bogus"))
}

func TestAllowed_ReturnsCopy(t *testing.T) {
	next := Allowed(Pending)
	next[0] = Returned
	assert.Equal(t, Processing, Allowed(Pending)[0])
}

func TestCanTransition_Exhaustive(t *testing.T) {
	edges := map[[2]Status]bool{
		{Pending, Processing}:    true,
		{Pending, Delivering}:    true,
		{Pending, Cancelled}:     true,
		{Processing, Delivering}: true,
		{Processing, Cancelled}:  true,
		{Delivering, Delivered}:  true,
		{Delivering, Cancelled}:  true,
		{Delivered, Returned}:    true,
	}
	for _, from := range All() {
		for _, to := range All() {
			assert.Equal(t, edges[[2]Status{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(Cancelled))
	assert.True(t, IsTerminal(Returned))
	assert.False(t, IsTerminal(Pending))
	assert.False(t, IsTerminal("bogus"))
}

func TestParse(t *testing.T) {
	s, err := Parse(" Delivering ")
	require.NoError(t, err)
	assert.Equal(t, Delivering, s)

	_, err = Parse("shipped")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		from, to      Status
		method, state string
		wantErr       error
	}{
		{"pending to processing unpaid card", Pending, Processing, "card", "unpaid", nil},
		{"unpaid card cannot ship", Pending, Delivering, "card", "unpaid", ErrPaymentRequired},
		{"paid card can ship", Processing, Delivering, "card", "paid", nil},
		{"cod ships unpaid", Processing, Delivering, "cod", "unpaid", nil},
		{"cod delivered unpaid", Delivering, Delivered, "cod", "unpaid", nil},
		{"wallet delivered unpaid", Delivering, Delivered, "wallet", "unpaid", ErrPaymentRequired},
		{"cancel always allowed from pending", Pending, Cancelled, "card", "unpaid", nil},
		{"skip is invalid", Pending, Delivered, "cod", "paid", ErrInvalidTransition},
		{"terminal", Cancelled, Pending, "cod", "unpaid", ErrInvalidTransition},
		{"unknown from", "shipped", Delivered, "cod", "paid", ErrUnknownStatus},
		{"unknown to", Pending, "shipped", "cod", "paid", ErrUnknownStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.from, tt.to, tt.method, tt.state)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
