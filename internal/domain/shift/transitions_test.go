package shift_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/shift"
)

func TestEventFor_TablaDeTransiciones(t *testing.T) {
	cases := []struct {
		from, to entity.ShiftStatus
		want     entity.ShiftEventType
	}{
		{entity.ShiftStatusOpen, entity.ShiftStatusPaused, entity.ShiftEventPause},
		{entity.ShiftStatusOpen, entity.ShiftStatusClosing, entity.ShiftEventStartClosing},
		{entity.ShiftStatusOpen, entity.ShiftStatusClosed, entity.ShiftEventForceClose},
		{entity.ShiftStatusPaused, entity.ShiftStatusOpen, entity.ShiftEventResume},
		{entity.ShiftStatusPaused, entity.ShiftStatusClosing, entity.ShiftEventStartClosing},
		{entity.ShiftStatusClosing, entity.ShiftStatusClosed, entity.ShiftEventClose},
	}
	for _, tc := range cases {
		got, err := shift.EventFor(tc.from, tc.to)
		require.NoError(t, err, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, tc.want, got)
	}
}

func TestEventFor_AristasInvalidas(t *testing.T) {
	cases := [][2]entity.ShiftStatus{
		{entity.ShiftStatusPaused, entity.ShiftStatusClosed},
		{entity.ShiftStatusClosing, entity.ShiftStatusOpen},
		{entity.ShiftStatusClosed, entity.ShiftStatusOpen},
		{entity.ShiftStatusAbandoned, entity.ShiftStatusOpen},
		{entity.ShiftStatusOpen, entity.ShiftStatusOpen},
	}
	for _, tc := range cases {
		_, err := shift.EventFor(tc[0], tc[1])
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, domain.KindInvalidTransition, domain.Kind(err))
		assert.False(t, shift.CanTransition(tc[0], tc[1]))
	}
}

func TestForceClose_OrigenesPermitidos(t *testing.T) {
	assert.Equal(t, []entity.ShiftStatus{entity.ShiftStatusOpen, entity.ShiftStatusPaused}, shift.ForceCloseSources())

	ev, err := shift.ForceCloseEventFor(entity.ShiftStatusPaused)
	require.NoError(t, err)
	assert.Equal(t, entity.ShiftEventForceClose, ev)

	_, err = shift.ForceCloseEventFor(entity.ShiftStatusClosing)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
