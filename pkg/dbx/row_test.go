package dbx_test

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValueKinds(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		in   any
		kind dbx.Kind
	}{
		{"nil", nil, dbx.KindNull},
		{"bool", true, dbx.KindBool},
		{"int32", int32(3), dbx.KindInt},
		{"uint8", uint8(3), dbx.KindInt},
		{"float32", float32(1.5), dbx.KindFloat},
		{"string", "x", dbx.KindString},
		{"bytes", []byte{0x1}, dbx.KindBytes},
		{"time", now, dbx.KindTime},
		{"huge uint64", uint64(1 << 63), dbx.KindString},
		{"other", struct{ A int }{1}, dbx.KindString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, dbx.NewValue(tt.in).Kind())
		})
	}
}

func TestValueAccessors(t *testing.T) {
	i, ok := dbx.IntValue(4).Int()
	assert.True(t, ok)
	assert.Equal(t, int64(4), i)

	f, ok := dbx.IntValue(4).Float()
	assert.True(t, ok)
	assert.Equal(t, 4.0, f)

	_, ok = dbx.StringValue("4").Int()
	assert.False(t, ok)

	b, ok := dbx.StringValue("abc").Bytes()
	assert.True(t, ok)
	assert.Equal(t, []byte("abc"), b)

	assert.Equal(t, "NULL", dbx.Null.String())
	assert.Nil(t, dbx.Null.Interface())
}

func TestNewValueCopiesBytes(t *testing.T) {
	buf := []byte("abc")
	v := dbx.NewValue(buf)
	buf[0] = 'z'

	got, _ := v.Bytes()
	assert.Equal(t, []byte("abc"), got)
}

func TestRowAccess(t *testing.T) {
	row := dbx.NewRow([]string{"id", "name", "id"}, []any{int64(1), "bob", int64(2)})

	require.Equal(t, 3, row.Len())
	require.Equal(t, []string{"id", "name", "id"}, row.Columns())

	v, ok := row.Get("id")
	require.True(t, ok)
	id, _ := v.Int()
	require.Equal(t, int64(1), id)

	_, ok = row.Get("missing")
	require.False(t, ok)

	require.Equal(t, "bob", row.At(1).String())
	require.Equal(t, map[string]any{"id": int64(1), "name": "bob"}, row.Map())
}

func TestRowMarshalJSONKeepsColumnOrder(t *testing.T) {
	row := dbx.NewRow([]string{"z", "a", "m"}, []any{int64(1), nil, "x"})

	data, err := json.Marshal(row)
	require.NoError(t, err)
	require.JSONEq(t, `{"z":1,"a":null,"m":"x"}`, string(data))
	require.Equal(t, `{"z":1,"a":null,"m":"x"}`, string(data))
}
