package registry

import (
	"github.com/stretchr/testify/require"
	"math"
	"testing"
)

func TestStatusLabel_KnownStages(t *testing.T) {
	require.Equal(t, "Manufactured", StatusLabel(0))
	require.Equal(t, "With Distributor", StatusLabel(2))
	require.Equal(t, "Delivered", StatusLabel(6))
}

func TestStatusLabel_IsTotal(t *testing.T) {
	for _, status := range []int64{-1, 7, 8, 255, math.MaxInt64, math.MinInt64} {
		require.Equal(t, UNKNOWN_STATUS_LABEL, StatusLabel(status), "status %d", status)
	}

	for status := int64(-50); status < 50; status++ {
		require.NotEmpty(t, StatusLabel(status))
	}
}

func TestStatusLabels_ReturnsACopy(t *testing.T) {
	labels := StatusLabels()
	labels[0] = "Tampered"
	require.Equal(t, "Manufactured", StatusLabel(0))
}
