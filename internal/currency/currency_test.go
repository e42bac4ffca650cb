package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		code       string
		wantCode   string
		wantDigits int
	}{
		{code: "USD", wantCode: "USD", wantDigits: 2},
		{code: "sgd", wantCode: "SGD", wantDigits: 2},
		{code: "JPY", wantCode: "JPY", wantDigits: 0},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			info, err := Lookup(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.Equal(t, tt.wantDigits, info.Digits)
			assert.NotEmpty(t, info.Symbol)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("ZZZ")
	assert.ErrorIs(t, err, ErrUnknownCurrency)

	info := LookupOrDefault("zzz")
	assert.Equal(t, Info{Code: "ZZZ", Symbol: "ZZZ", Digits: 2}, info)
}

func TestInfo_Format(t *testing.T) {
	info := Info{Code: "JPY", Symbol: "¥", Digits: 0}
	assert.Equal(t, "¥1235", info.Format(decimal.RequireFromString("1234.5")))

	info = Info{Code: "USD", Symbol: "$", Digits: 2}
	assert.Equal(t, "$12.30", info.Format(decimal.RequireFromString("12.3")))
}
