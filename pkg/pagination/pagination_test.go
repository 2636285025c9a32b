package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	got, err := DefaultLimits().Normalize(Params{})
	require.NoError(t, err)
	assert.Equal(t, Params{Page: 1, PerPage: DefaultPerPage}, got)
	assert.Equal(t, 0, got.Offset())
	assert.Equal(t, DefaultPerPage, got.Limit())
}

func TestNormalizeLeavesLargePerPageUnbounded(t *testing.T) {
	got, err := DefaultLimits().Normalize(Params{Page: 2, PerPage: 150})
	require.NoError(t, err)
	assert.Equal(t, 150, got.PerPage)
	assert.Equal(t, 150, got.Offset())
}

func TestNormalizeRejectsPerPageAboveMax(t *testing.T) {
	_, err := Limits{DefaultPerPage: 5, MaxPerPage: 20}.Normalize(Params{Page: 3, PerPage: 500})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<= 20")

	got, err := Limits{DefaultPerPage: 5, MaxPerPage: 20}.Normalize(Params{Page: 3, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, 40, got.Offset())
}

func TestNormalizeRejectsNegative(t *testing.T) {
	_, err := DefaultLimits().Normalize(Params{Page: -1})
	require.Error(t, err)

	_, err = DefaultLimits().Normalize(Params{PerPage: -4})
	require.Error(t, err)
}

func TestNormalizeRepairsInvertedLimits(t *testing.T) {
	got, err := Limits{DefaultPerPage: 50, MaxPerPage: 10}.Normalize(Params{})
	require.NoError(t, err)
	assert.Equal(t, 50, got.PerPage)

	_, err = Limits{DefaultPerPage: 50, MaxPerPage: 10}.Normalize(Params{PerPage: 80})
	require.Error(t, err)
}
