package database

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type moneyDoc struct {
	Amount decimal.Decimal `bson:"amount"`
}

func TestDecimalRoundTrip(t *testing.T) {
	reg := Registry()

	for _, s := range []string{"0", "1", "99.99", "-42.5", "0.001", "123456789.123456789"} {
		in := moneyDoc{Amount: decimal.RequireFromString(s)}

		raw, err := bson.MarshalWithRegistry(reg, in)
		require.NoError(t, err, s)

		var out moneyDoc
		require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &out), s)
		assert.True(t, out.Amount.Equal(in.Amount), "%s round-tripped to %s", s, out.Amount)
	}
}

func TestDecimalStoredAsDecimal128(t *testing.T) {
	raw, err := bson.MarshalWithRegistry(Registry(), moneyDoc{Amount: decimal.RequireFromString("19.99")})
	require.NoError(t, err)

	var doc bson.Raw = raw
	val := doc.Lookup("amount")
	d128, ok := val.Decimal128OK()
	require.True(t, ok, "expected decimal128, got %s", val.Type)
	assert.Equal(t, "19.99", d128.String())
}

func TestDecimalDecodesLegacyTypes(t *testing.T) {
	reg := Registry()

	// Documents written before the codec existed carry doubles or ints.
	legacy := bson.D{{Key: "amount", Value: int64(150)}}
	raw, err := bson.Marshal(legacy)
	require.NoError(t, err)

	var out moneyDoc
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &out))
	assert.True(t, out.Amount.Equal(decimal.NewFromInt(150)))

	asD128, err := primitive.ParseDecimal128("7.25")
	require.NoError(t, err)
	raw, err = bson.Marshal(bson.D{{Key: "amount", Value: asD128}})
	require.NoError(t, err)

	out = moneyDoc{}
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &out))
	assert.True(t, out.Amount.Equal(decimal.RequireFromString("7.25")))
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 0, 45)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(0), p.Skip())

	p = NewPagination(3, 10, 45)
	assert.Equal(t, 5, p.TotalPages)
	assert.Equal(t, int64(20), p.Skip())
}
