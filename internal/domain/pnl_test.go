package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceChangePercent(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		entry   float64
		want    float64
		wantErr bool
	}{
		{name: "gain", current: 150.0, entry: 100.0, want: 50.0},
		{name: "loss", current: 80.0, entry: 100.0, want: -20.0},
		{name: "unchanged", current: 100.0, entry: 100.0, want: 0.0},
		{name: "zero entry price", current: 100.0, entry: 0.0, wantErr: true},
		{name: "negative entry price", current: 100.0, entry: -1.0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PriceChangePercent(tt.current, tt.entry)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestShouldExit(t *testing.T) {
	// Entry 100, target gain 50%, target loss 20%.
	const gain, loss = 50.0, 20.0

	tests := []struct {
		name    string
		current float64
		want    bool
	}{
		{name: "price 150 hits gain target", current: 150.0, want: true},
		{name: "price 80 hits loss target", current: 80.0, want: true},
		{name: "price 120 holds", current: 120.0, want: false},
		{name: "price 79.999 crosses loss target", current: 79.999, want: true},
		{name: "price 149.999 just below gain target", current: 149.999, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changePct, err := PriceChangePercent(tt.current, 100.0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ShouldExit(changePct, gain, loss))
		})
	}
}

func TestExitReasonFor(t *testing.T) {
	assert.Equal(t, ExitReasonTargetGain, ExitReasonFor(52.3))
	assert.Equal(t, ExitReasonStopLoss, ExitReasonFor(-21.0))
}
