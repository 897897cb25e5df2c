package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
)

func TestCanAccessSpotChecks(t *testing.T) {
	tests := []struct {
		stage    stage.Stage
		resource string
		want     bool
	}{
		{stage.Active, "dashboard", true},
		{stage.Lead, "dashboard", false},
		{stage.PaymentFailed, "profile", true},
		{stage.PaymentFailed, "agreements", false},
		{stage.PaymentFailed, "dashboard", false},
		{stage.Onboarding, "agreements", true},
		{stage.Lead, "onboarding", false},
		{stage.Cancelled, "profile", false},
		{stage.Cancelled, "freeAnalysis", true},
		{stage.Lead, "freeAnalysis", true},
		{stage.PendingPayment, "learn", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage)+"/"+tt.resource, func(t *testing.T) {
			got, err := CanAccess(tt.stage, tt.resource)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanAccessUnknownResource(t *testing.T) {
	ok, err := CanAccess(stage.Active, "unknown_resource")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestCanAccessUnknownStage(t *testing.T) {
	_, err := CanAccess(stage.Stage("vip"), "dashboard")
	assert.ErrorIs(t, err, stage.ErrUnknownStage)
}

func TestMatrixIsExhaustive(t *testing.T) {
	for _, r := range Resources {
		for _, s := range stage.All {
			_, err := CanAccess(s, string(r))
			assert.NoError(t, err, "%s/%s", s, r)
		}
	}
}

func TestActiveOnlyResources(t *testing.T) {
	for _, r := range []Resource{Dashboard, Status, Documents, Timeline, Learn} {
		for _, s := range stage.All {
			ok, err := CanAccess(s, string(r))
			require.NoError(t, err)
			assert.Equal(t, s == stage.Active, ok, "%s/%s", s, r)
		}
	}
}

func TestAllowed(t *testing.T) {
	got, err := Allowed(stage.PaymentFailed)
	require.NoError(t, err)
	assert.Equal(t, []Resource{Onboarding, Profile, FreeAnalysis}, got)

	got, err = Allowed(stage.Lead)
	require.NoError(t, err)
	assert.Equal(t, []Resource{FreeAnalysis}, got)
}
