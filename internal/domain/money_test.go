package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "whole number", input: "50", want: 5000},
		{name: "two decimals", input: "50.25", want: 5025},
		{name: "rounds half up", input: "0.005", want: 1},
		{name: "rounds down", input: "10.004", want: 1000},
		{name: "surrounding spaces", input: " 20.00 ", want: 2000},
		{name: "non numeric", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
		{name: "rounds to zero", input: "0.001", wantErr: true},
		{name: "too large", input: "100000000000000", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAmount(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseFee(t *testing.T) {
	fee, err := ParseFee("0")
	require.NoError(t, err)
	assert.Equal(t, int64(0), fee)

	fee, err = ParseFee("0.25")
	require.NoError(t, err)
	assert.Equal(t, int64(25), fee)

	_, err = ParseFee("-1")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "100.00 SAR", FormatAmount(10000, "SAR"))
	assert.Equal(t, "0.25 SAR", FormatAmount(25, "SAR"))
	assert.Equal(t, "-50.00", FormatAmount(-5000, ""))
}
