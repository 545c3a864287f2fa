package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef_Structured(t *testing.T) {
	id := uuid.New()

	r := ParseRef(id.String())
	got, ok := r.Structured()
	assert.True(t, ok)
	assert.Equal(t, id, got)

	upper := ParseRef("  " + id.String() + " ")
	_, ok = upper.Structured()
	assert.False(t, ok, "padded string is not in canonical form")

	reparsed, ok := upper.Reparse()
	require.True(t, ok)
	assert.Equal(t, id, reparsed)
}

func TestRef_Reparse_LenientForms(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	forms := []string{
		"6BA7B810-9DAD-11D1-80B4-00C04FD430C8",
		"{6ba7b810-9dad-11d1-80b4-00c04fd430c8}",
		"urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		"6ba7b8109dad11d180b400c04fd430c8",
	}
	for _, f := range forms {
		got, ok := ParseRef(f).Reparse()
		assert.True(t, ok, f)
		assert.Equal(t, id, got, f)
	}

	_, ok := ParseRef("landlord-42").Reparse()
	assert.False(t, ok)
}

func TestRef_Matches(t *testing.T) {
	id := uuid.New()
	assert.True(t, NewRef(id).Matches(ParseRef(id.String())))
	assert.True(t, NewRef(id).Matches(ParseRef("{"+id.String()+"}")))
	assert.True(t, ParseRef("Landlord-42").Matches(ParseRef(" landlord-42")))
	assert.False(t, ParseRef("landlord-42").Matches(ParseRef("landlord-43")))
	assert.False(t, Ref{}.Matches(Ref{}))
}

func TestRef_UnmarshalJSON(t *testing.T) {
	var p Property
	err := json.Unmarshal([]byte(`{"id":"p1","owner":{"$oid":"abc"},"landlord":42,"userID":null}`), &p)
	require.NoError(t, err)
	assert.Equal(t, "abc", p.Owner.String())
	assert.Equal(t, "42", p.Landlord.String())
	assert.True(t, p.UserID.IsZero())
	assert.Len(t, p.OwnerRefs(), 2)
}

func TestAmount_Decimal(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"25000", "25000"},
		{"1,500.50", "1500.5"},
		{"$ 900", "900"},
		{" 12.00 ", "12"},
	}
	for _, tc := range cases {
		d, err := RawAmount(tc.raw).Decimal()
		require.NoError(t, err, tc.raw)
		assert.True(t, d.Equal(decimal.RequireFromString(tc.want)), "%s → %s", tc.raw, d)
	}

	_, err := RawAmount("").Decimal()
	assert.ErrorIs(t, err, ErrAmountMissing)

	_, err = RawAmount("call office").Decimal()
	assert.Error(t, err)
}

func TestAmount_JSON(t *testing.T) {
	var u Unit
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","monthly_rent":"1200"}`), &u))
	d, err := u.MonthlyRent.Decimal()
	require.NoError(t, err)
	assert.Equal(t, "1200", d.String())

	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","monthly_rent":1350.5}`), &u))
	d, err = u.MonthlyRent.Decimal()
	require.NoError(t, err)
	assert.Equal(t, "1350.5", d.String())

	out, err := json.Marshal(AmountFromInt(700))
	require.NoError(t, err)
	assert.Equal(t, "700", string(out))
}

func TestOptional(t *testing.T) {
	o := Some(3)
	v, ok := o.Get()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 7, None[int]().OrElse(7))

	m := map[string]int{"a": 1}
	assert.True(t, Lookup(m, "a").Present())
	assert.False(t, Lookup(m, "b").Present())
}

func TestLease_ActiveAt(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	l := Lease{StartDate: &start, EndDate: &end}

	assert.True(t, l.ActiveAt(start))
	assert.True(t, l.ActiveAt(end))
	assert.False(t, l.ActiveAt(end.Add(time.Second)))
	assert.False(t, Lease{StartDate: &start}.ActiveAt(start))
}

func TestMonthOf(t *testing.T) {
	m := MonthOf(time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), m.Start)
	assert.True(t, m.Contains(time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC)))
	assert.False(t, m.Contains(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
}
