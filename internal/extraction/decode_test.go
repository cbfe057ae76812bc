package extraction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDecoder(t *testing.T) *Decoder {
	t.Helper()
	d, err := NewDecoder(nil)
	require.NoError(t, err)
	return d
}

func TestDecoder_Decode(t *testing.T) {
	d := newDecoder(t)

	t.Run("Should decode a clean payload keeping numbers exact", func(t *testing.T) {
		rec, repairs, err := d.Decode([]byte(`{"purchase_id": "FT 1", "items": [{"qty": 1.10, "price_unit": "2,5"}]}`))
		require.NoError(t, err)
		assert.Empty(t, repairs)
		items := rec.Items()
		require.Len(t, items, 1)
		assert.Equal(t, json.Number("1.10"), items[0]["qty"])
		assert.Equal(t, "2,5", items[0]["price_unit"])
	})

	t.Run("Should strip markdown code fences", func(t *testing.T) {
		rec, repairs, err := d.Decode([]byte("```json\n{\"supplier_nif\": \"123456789\"}\n```"))
		require.NoError(t, err)
		assert.Contains(t, repairs, "code_fence")
		require.NotNil(t, rec.Str("supplier_nif"))
		assert.Equal(t, "123456789", *rec.Str("supplier_nif"))
	})

	t.Run("Should rename synonyms without overwriting canonical keys", func(t *testing.T) {
		rec, repairs, err := d.Decode([]byte(`{"nif": "PT 1", "supplier_name": "Lusa", "supplier_description": "Kept", "lines": []}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"supplier_name->supplier_description", "nif->supplier_nif", "lines->items"}, repairs)
		assert.Equal(t, "PT 1", *rec.Str("supplier_nif"))
		assert.Equal(t, "Kept", *rec.Str("supplier_description"))
		_, stale := rec["nif"]
		assert.False(t, stale)
	})

	t.Run("Should tolerate a schema mismatch", func(t *testing.T) {
		rec, repairs, err := d.Decode([]byte(`{"items": "none", "purchase_id": {"nested": true}}`))
		require.NoError(t, err)
		assert.Contains(t, repairs, "schema_mismatch")
		assert.Empty(t, rec.Items())
		assert.Nil(t, rec.Str("purchase_id"))
	})

	t.Run("Should reject payloads that are not an object", func(t *testing.T) {
		for _, body := range []string{``, `   `, `[]`, `null`, `"text"`, `Sorry, I cannot read this invoice.`} {
			_, _, err := d.Decode([]byte(body))
			assert.ErrorIs(t, err, ErrNotObject, body)
		}
		_, _, err := d.Decode([]byte(`{"a": 1`))
		assert.Error(t, err)
		_, _, err = d.Decode([]byte(`{"a": 1} {"b": 2}`))
		assert.Error(t, err)
	})
}

func TestValidateJSON(t *testing.T) {
	schema, err := CompileSchema(BuildInvoiceJSONSchema())
	require.NoError(t, err)

	assert.NoError(t, ValidateJSON(schema, []byte(`{"qty": 1, "items": [{"qty": "2", "vat_rate": null}], "extra": {"x": 1}}`)))
	assert.Error(t, ValidateJSON(schema, []byte(`{"items": [{"qty": [1]}]}`)))
	assert.Error(t, ValidateJSON(schema, []byte(`{"items": {}}`)))
	assert.NoError(t, ValidateJSON(schema, []byte(`{"items": [{"price_unit": 1234567890.123456789}]}`)))
	assert.Error(t, ValidateJSON(schema, []byte(`{"items": [`)))
}
