package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{
		StatusPending, StatusConfirmed, StatusPreparing,
		StatusShipped, StatusDelivered, StatusCancelled,
	} {
		assert.True(t, s.Valid(), "%s should be valid", s)
	}
	assert.False(t, Status("returned").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPreparing, false},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},

		{StatusConfirmed, StatusPreparing, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusShipped, false},
		{StatusConfirmed, StatusPending, false},

		{StatusPreparing, StatusShipped, true},
		{StatusPreparing, StatusCancelled, true},
		{StatusPreparing, StatusDelivered, false},
		{StatusPreparing, StatusConfirmed, false},

		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusShipped, StatusPreparing, false},

		{StatusDelivered, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},

		{StatusPending, StatusPending, false},
		{StatusDelivered, StatusDelivered, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}
