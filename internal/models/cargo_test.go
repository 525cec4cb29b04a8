package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to CargoStatus
		allowed  bool
	}{
		{StatusPending, StatusAssigned, true},
		{StatusAssigned, StatusInTransit, true},
		{StatusInTransit, StatusDelivered, true},
		{StatusPending, StatusCancelled, true},
		{StatusAssigned, StatusCancelled, true},
		{StatusInTransit, StatusCancelled, true},

		{StatusPending, StatusInTransit, false},
		{StatusPending, StatusDelivered, false},
		{StatusAssigned, StatusDelivered, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusAssigned, false},
		{StatusAssigned, StatusPending, false},
	}

	for _, tc := range cases {
		got := tc.from.CanTransitionTo(tc.to)
		assert.Equalf(t, tc.allowed, got, "%s -> %s", tc.from, tc.to)
	}
}

func TestStatusTransitionRejectsUnknownTarget(t *testing.T) {
	assert.False(t, StatusPending.CanTransitionTo(CargoStatus("lost")))
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusAssigned.IsTerminal())
	assert.False(t, StatusInTransit.IsTerminal())
}

func TestLocationRoundTrip(t *testing.T) {
	loc := Location{Country: "KZ", City: "Almaty", Address: "Abay 10"}

	value, err := loc.Value()
	assert.NoError(t, err)

	var decoded Location
	assert.NoError(t, decoded.Scan(value))
	assert.Equal(t, loc, decoded)
}

func TestLocationScanEmpty(t *testing.T) {
	var loc Location
	assert.NoError(t, loc.Scan(nil))
	assert.Equal(t, Location{}, loc)

	assert.NoError(t, loc.Scan([]byte(`{"city":"Astana"}`)))
	assert.Equal(t, "Astana", loc.City)
}
