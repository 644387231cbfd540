package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPenaltyTiersValidate(t *testing.T) {
	ok := PenaltyTiers{{Threshold: 3, Seconds: 5}, {Threshold: 4, Seconds: 15}}
	assert.NoError(t, ok.Validate())

	unsorted := PenaltyTiers{{Threshold: 4, Seconds: 15}, {Threshold: 3, Seconds: 5}}
	assert.ErrorIs(t, unsorted.Validate(), ErrTierThresholdOrder)

	duplicate := PenaltyTiers{{Threshold: 3, Seconds: 5}, {Threshold: 3, Seconds: 15}}
	assert.ErrorIs(t, duplicate.Validate(), ErrTierThresholdOrder)

	zero := PenaltyTiers{{Threshold: 0, Seconds: 5}}
	assert.ErrorIs(t, zero.Validate(), ErrTierThresholdNegative)

	negative := PenaltyTiers{{Threshold: 3, Seconds: -1}}
	assert.ErrorIs(t, negative.Validate(), ErrTierPenaltyNegative)
}

func TestPenaltySettingsValidate(t *testing.T) {
	assert.ErrorIs(t, (&PenaltySettings{FreeRestarts: -1}).Validate(), ErrFreeRestartsNegative)
	assert.ErrorIs(t, (&PenaltySettings{FlatPenaltySeconds: -5}).Validate(), ErrTierPenaltyNegative)
	assert.NoError(t, (&PenaltySettings{FreeRestarts: 1, FlatPenaltySeconds: 10}).Validate())
}

func TestSeasonBlockingReason(t *testing.T) {
	s := &Season{Name: "S1", IsActive: true}
	assert.Empty(t, s.BlockingReason())

	s.IsEnding = true
	assert.Contains(t, s.BlockingReason(), "ending")

	s.IsActive = false
	assert.Equal(t, "season has ended", s.BlockingReason())
}

func TestSeasonKFactorFor(t *testing.T) {
	s := &Season{KFactorNew: 40, KFactorEstablished: 20, EstablishedThreshold: 10}
	assert.Equal(t, 40.0, s.KFactorFor(0))
	assert.Equal(t, 40.0, s.KFactorFor(9))
	assert.Equal(t, 20.0, s.KFactorFor(10))
	assert.Equal(t, 20.0, s.KFactorFor(50))
}
