package domain

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(value string) time.Time {
	t, _ := time.Parse("2006-01-02", value)
	return t
}

func TestParseTransactionFilter_ExactDay(t *testing.T) {
	filter, err := ParseTransactionFilter(url.Values{"date": {"2023-04-30"}})
	require.NoError(t, err)

	assert.Equal(t, day("2023-04-30"), *filter.From)
	assert.Equal(t, day("2023-05-01"), *filter.Before)
	assert.Nil(t, filter.MinAmount)
	assert.Nil(t, filter.MaxAmount)
}

func TestParseTransactionFilter_Range(t *testing.T) {
	filter, err := ParseTransactionFilter(url.Values{"from": {"2023-04-01"}, "upTo": {"2023-04-30"}})
	require.NoError(t, err)

	assert.Equal(t, day("2023-04-01"), *filter.From)
	assert.Equal(t, day("2023-05-01"), *filter.Before)

	filter, err = ParseTransactionFilter(url.Values{"upTo": {"2023-04-30"}})
	require.NoError(t, err)
	assert.Nil(t, filter.From)
	assert.NotNil(t, filter.Before)
}

func TestParseTransactionFilter_Amounts(t *testing.T) {
	filter, err := ParseTransactionFilter(url.Values{"min": {"-10.5"}, "max": {"50"}})
	require.NoError(t, err)

	assert.Equal(t, -10.5, *filter.MinAmount)
	assert.Equal(t, 50.0, *filter.MaxAmount)
}

func TestParseTransactionFilter_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		err   error
	}{
		{"date with from", url.Values{"date": {"2023-04-30"}, "from": {"2023-04-01"}}, ErrConflictingDateFilters},
		{"date with upTo", url.Values{"date": {"2023-04-30"}, "upTo": {"2023-05-01"}}, ErrConflictingDateFilters},
		{"bad date", url.Values{"date": {"30/04/2023"}}, ErrInvalidDateFilter},
		{"bad from", url.Values{"from": {"yesterday"}}, ErrInvalidDateFilter},
		{"bad min", url.Values{"min": {"ten"}}, ErrInvalidAmountFilter},
		{"bad max", url.Values{"max": {"1e"}}, ErrInvalidAmountFilter},
		{"NaN min", url.Values{"min": {"NaN"}}, ErrInvalidAmountFilter},
		{"infinite max", url.Values{"max": {"Inf"}}, ErrInvalidAmountFilter},
		{"overflowing min", url.Values{"min": {"1e400"}}, ErrInvalidAmountFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTransactionFilter(tt.query)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount(" -12.5 ")
	require.NoError(t, err)
	assert.Equal(t, -12.5, amount)

	for _, value := range []string{"NaN", "-Infinity", "+Inf", "1e400", "ten"} {
		_, err := ParseAmount(value)
		assert.Error(t, err, value)
	}
}

func TestParseTransactionDate(t *testing.T) {
	parsed, err := ParseTransactionDate("2023-04-30T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 4, 30, 8, 0, 0, 0, time.UTC), parsed)

	parsed, err = ParseTransactionDate("2023-04-30")
	require.NoError(t, err)
	assert.Equal(t, day("2023-04-30"), parsed)

	_, err = ParseTransactionDate("soon")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
