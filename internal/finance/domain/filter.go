package domain

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	financeErrors "github.com/sebuszqo/ezwallet/internal/finance/errors"
)

const dayLayout = "2006-01-02"

var (
	ErrConflictingDateFilters = financeErrors.NewValidationError("Cannot use date together with from or upTo")
	ErrInvalidDateFilter      = financeErrors.NewValidationError("Dates must use the YYYY-MM-DD format")
	ErrInvalidAmountFilter    = financeErrors.NewValidationError("min and max must be numbers")
)

// TransactionFilter composes the predicates of a transaction listing. Zero values do not filter.
// A non-nil empty Usernames matches nothing.
type TransactionFilter struct {
	Username  string
	Usernames []string
	Category  string
	From      *time.Time // inclusive
	Before    *time.Time // exclusive
	MinAmount *float64
	MaxAmount *float64
}

// ParseTransactionFilter reads the date, from, upTo, min and max query parameters.
// upTo covers its whole day.
func ParseTransactionFilter(query url.Values) (TransactionFilter, error) {
	var filter TransactionFilter

	date := strings.TrimSpace(query.Get("date"))
	from := strings.TrimSpace(query.Get("from"))
	upTo := strings.TrimSpace(query.Get("upTo"))

	if date != "" && (from != "" || upTo != "") {
		return filter, ErrConflictingDateFilters
	}

	if date != "" {
		day, err := parseDay(date)
		if err != nil {
			return filter, err
		}
		next := day.AddDate(0, 0, 1)
		filter.From, filter.Before = &day, &next
	}
	if from != "" {
		day, err := parseDay(from)
		if err != nil {
			return filter, err
		}
		filter.From = &day
	}
	if upTo != "" {
		day, err := parseDay(upTo)
		if err != nil {
			return filter, err
		}
		next := day.AddDate(0, 0, 1)
		filter.Before = &next
	}

	var err error
	if filter.MinAmount, err = parseAmountBound(query.Get("min")); err != nil {
		return filter, err
	}
	if filter.MaxAmount, err = parseAmountBound(query.Get("max")); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseDay(value string) (time.Time, error) {
	day, err := time.ParseInLocation(dayLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDateFilter
	}
	return day, nil
}

func parseAmountBound(value string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	amount, err := ParseAmount(value)
	if err != nil {
		return nil, ErrInvalidAmountFilter
	}
	return &amount, nil
}

var errNotFinite = errors.New("amount is not a finite number")

// ParseAmount parses a decimal amount. NaN and infinities are rejected, they cannot be
// encoded as JSON.
func ParseAmount(value string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if !IsFiniteAmount(amount) {
		return 0, errNotFinite
	}
	return amount, nil
}

func IsFiniteAmount(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0)
}

// ParseTransactionDate accepts RFC 3339 timestamps and plain YYYY-MM-DD days.
func ParseTransactionDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(dayLayout, value, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}
