package remit

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_StringAndParse(t *testing.T) {
	for _, s := range []Status{StatusNotFound, StatusPending, StatusComplete} {
		parsed, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	assert.Equal(t, "PENDING", StatusPending.String())
	assert.Equal(t, "COMPLETE", StatusComplete.String())
	assert.Equal(t, "NOTFOUND", StatusNotFound.String())

	_, err := ParseStatus("COMPLETED")
	assert.Error(t, err, "only the COMPLETE token is written by the ledger")
}

func TestStatus_ZeroValueIsNotFound(t *testing.T) {
	var s Status
	assert.Equal(t, StatusNotFound, s)
}

func TestAddress_Validate(t *testing.T) {
	assert.NoError(t, Address("GBRPYHIL2CI3FNQ4BXLFMNDLFJUNPU2HY3ZMFSHONUCEOASW7QC7OX2H").Validate())
	assert.NoError(t, Address("alice").Validate())

	assert.Error(t, Address("").Validate())
	assert.Error(t, Address("two words").Validate())
	assert.Error(t, Address("tab\there").Validate())
	assert.Error(t, Address(strings.Repeat("a", 129)).Validate())

	assert.NoError(t, Address("jos\u00e9").Validate())
	assert.ErrorContains(t, Address("jose\u0301").Validate(), "normalization form C")
	assert.ErrorContains(t, Address("bob\xff").Validate(), "not valid UTF-8")
}

func TestCurrency_Validate(t *testing.T) {
	assert.NoError(t, Currency("USD").Validate())
	assert.NoError(t, Currency("usdc_v2").Validate())
	assert.NoError(t, Currency(strings.Repeat("X", 32)).Validate())

	assert.Error(t, Currency("").Validate())
	assert.Error(t, Currency("US-D").Validate())
	assert.Error(t, Currency(strings.Repeat("X", 33)).Validate())
}

func TestCurrency_ValidateISO(t *testing.T) {
	assert.NoError(t, Currency("USD").ValidateISO())
	assert.NoError(t, Currency("KES").ValidateISO())
	assert.NoError(t, Currency("EUR").ValidateISO())

	assert.Error(t, Currency("QQQ").ValidateISO())
	assert.Error(t, Currency("USDC").ValidateISO())
	assert.Error(t, Currency("U$D").ValidateISO())
}

func TestNotFoundRecord(t *testing.T) {
	r := NotFoundRecord()

	assert.Equal(t, uint64(0), r.ID)
	assert.False(t, r.Found())
	assert.Equal(t, StatusNotFound, r.Status)
	assert.Equal(t, Currency("NOTFOUND"), r.Currency)
	assert.Equal(t, PlaceholderAddress, r.Sender)
	assert.Equal(t, PlaceholderAddress, r.Recipient)
	assert.True(t, r.Amount.IsZero())
	assert.Equal(t, uint64(0), r.Timestamp)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"positive", "100", "100", false},
		{"zero", "0", "0", false},
		{"negative", "-5", "-5", false},
		{"trailing zero fraction", "100.00", "100", false},
		{"exponent", "1e3", "1000", false},
		{"max i128", "170141183460469231731687303715884105727", "170141183460469231731687303715884105727", false},
		{"min i128", "-170141183460469231731687303715884105728", "-170141183460469231731687303715884105728", false},
		{"above i128", "170141183460469231731687303715884105728", "", true},
		{"fraction", "10.5", "", true},
		{"garbage", "ten", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestCheckAmount(t *testing.T) {
	assert.NoError(t, CheckAmount(decimal.NewFromInt(42)))
	assert.Error(t, CheckAmount(decimal.RequireFromString("0.1")))
}
