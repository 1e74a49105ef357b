package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusDelayed, true},
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, true},
		{StatusDelayed, StatusInProgress, true},
		{StatusDelayed, StatusCompleted, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusDelayed, StatusPending, false},
		{StatusInProgress, StatusPending, false},
		{StatusInProgress, StatusDelayed, false},
		// Completed is terminal: no edge out, ever.
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusDelayed, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusCompleted, false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestStatus_RankMonotonicOverTransitions(t *testing.T) {
	for from, targets := range validTransitions {
		for _, to := range targets {
			require.Greater(t, to.Rank(), from.Rank(),
				"transition %s -> %s must not reduce rank", from, to)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw    string
		want   Status
		wantOK bool
	}{
		{"PENDING", StatusPending, true},
		{"in_progress", StatusInProgress, true},
		{" Delayed ", StatusDelayed, true},
		{"COMPLETED", StatusCompleted, true},
		{"", StatusPending, true},
		{"garbage", StatusPending, false},
	}
	for _, tt := range tests {
		got, ok := ParseStatus(tt.raw)
		require.Equal(t, tt.want, got, "raw=%q", tt.raw)
		require.Equal(t, tt.wantOK, ok, "raw=%q", tt.raw)
	}
}

func TestNoteConfirmed(t *testing.T) {
	require.False(t, NoteConfirmed(""))
	require.False(t, NoteConfirmed("add two extra boxes"))
	require.True(t, NoteConfirmed("add two extra boxes"+ConfirmedMarker))
	require.True(t, NoteConfirmed("add two extra boxes [CONFIRMED]  "))
}

func TestConfirmNote_Idempotent(t *testing.T) {
	note := "swap pallet for crate"
	confirmed := ConfirmNote(note)
	require.True(t, NoteConfirmed(confirmed))
	require.Equal(t, confirmed, ConfirmNote(confirmed))
}

func TestOrder_RequiresAttention(t *testing.T) {
	o := &Order{}
	require.False(t, o.RequiresAttention(), "empty note never requires attention")

	o.FulfillmentNote = "customer asked for morning delivery"
	require.True(t, o.RequiresAttention())

	o.ModificationConfirmed = true
	require.False(t, o.RequiresAttention())
}

func TestOrder_SerializedNote(t *testing.T) {
	o := &Order{FulfillmentNote: "note text", ModificationConfirmed: true}
	require.Equal(t, "note text"+ConfirmedMarker, o.SerializedNote())

	o.ModificationConfirmed = false
	require.Equal(t, "note text", o.SerializedNote())

	o.FulfillmentNote = ""
	o.ModificationConfirmed = true
	require.Equal(t, "", o.SerializedNote(), "empty note stays empty even when confirmed")
}

func TestOrder_Clone(t *testing.T) {
	reg := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	o := &Order{
		ID:           "P-100",
		RegisteredAt: &reg,
		Attachments:  []string{"orders/P-100/a.pdf"},
	}

	c := o.Clone()
	c.Attachments[0] = "changed"
	*c.RegisteredAt = c.RegisteredAt.Add(time.Hour)

	require.Equal(t, "orders/P-100/a.pdf", o.Attachments[0])
	require.Equal(t, reg, *o.RegisteredAt)
}
