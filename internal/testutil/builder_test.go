package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilder_SortsEvents(t *testing.T) {
	cat := NewBuilder(ID("us1"), MainshockMag(6.4)).
		WithEvent(Mag(3.1), Days(2)).
		WithEvent(Mag(4.0), Days(0.5), At(35.8, -117.5)).
		Build()

	require.Equal(t, "us1", cat.Mainshock.ID)
	require.Equal(t, 6.4, cat.Mainshock.Mag)
	require.Equal(t, "us1", cat.Query.Mainshock.ID)
	require.Len(t, cat.Events, 2)
	require.Equal(t, 4.0, cat.Events[0].Mag)
	require.InDelta(t, 0.5, cat.DaysAfter(cat.Events[0]), 1e-9)
	require.Equal(t, 35.8, cat.Events[0].Lat)
}

func TestBuilder_WithSequence(t *testing.T) {
	cat := NewBuilder().WithSequence(50).Build()
	require.Equal(t, 50, cat.Len())
	require.Len(t, cat.Select(4.5, 0, 30), 50)
}

func TestNewHistoryDB(t *testing.T) {
	db := NewHistoryDB(t)
	records, err := db.Forecasts().List(0)
	require.NoError(t, err)
	require.Empty(t, records)
}
