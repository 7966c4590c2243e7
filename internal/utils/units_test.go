package utils

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUnitsTrim(t *testing.T) {
	cases := []struct {
		amount  string
		maxFrac int
		want    string
	}{
		{"1234500000000000000", 18, "1.2345"},
		{"1000000000000000000", 18, "1"},
		{"1", 18, "0.000000000000000001"},
		{"1234500000000000000", 2, "1.23"},
		{"0", 18, "0"},
		{"1999999999999999999", 0, "1"},
	}
	for _, tc := range cases {
		v, ok := new(big.Int).SetString(tc.amount, 10)
		require.True(t, ok)
		assert.Equal(t, tc.want, FormatUnitsTrim(v, 18, tc.maxFrac), tc.amount)
	}
	assert.Equal(t, "0", FormatUnitsTrim(nil, 18, 4))
}

func TestParseEther(t *testing.T) {
	wei, err := ParseEther("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", wei.String())

	wei, err = ParseEther("0.0000000000000000019")
	require.NoError(t, err)
	assert.Equal(t, "1", wei.String())

	_, err = ParseEther("")
	assert.Error(t, err)
	_, err = ParseEther("-1")
	assert.Error(t, err)
	_, err = ParseEther("abc")
	assert.Error(t, err)
}

func TestDecimalConversions(t *testing.T) {
	wei := big.NewInt(2_500_000_000_000_000)
	d := ToDecimal(wei, 18)
	assert.True(t, d.Equal(decimal.RequireFromString("0.0025")))
	assert.Equal(t, wei.String(), ToUnits(d, 18).String())
}

func TestNormalizeHex0x(t *testing.T) {
	assert.Equal(t, "0xaa36a7", NormalizeHex0x("AA36A7"))
	assert.Equal(t, "0xaa36a7", NormalizeHex0x("0XAA36A7"))
	assert.Equal(t, "", NormalizeHex0x("  "))
	assert.Equal(t, "0xaa36a7", ChainIDHex(11155111))
}
