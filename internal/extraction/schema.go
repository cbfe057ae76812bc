package extraction

// BuildInvoiceJSONSchema returns the JSON-Schema (draft 2020-12 subset) the
// extraction payload is checked against. It is deliberately loose: every
// scalar may arrive as a string, a number or null, and unknown keys are
// allowed. Its job is to catch structural breakage (items not an array,
// nested objects where scalars belong), not formatting.
func BuildInvoiceJSONSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"product_code":  scalarProp(),
			"product_desc":  scalarProp(),
			"description":   scalarProp(),
			"qty":           scalarProp(),
			"unit_supplier": scalarProp(),
			"unit":          scalarProp(),
			"price_unit":    scalarProp(),
			"price_total":   scalarProp(),
			"vat_rate":      scalarProp(),
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"purchase_id":          scalarProp(),
			"purchase_date":        scalarProp(),
			"supplier_description": scalarProp(),
			"supplier_nif":         scalarProp(),
			"items": map[string]any{
				"type":  "array",
				"items": item,
			},
		},
	}
}

func scalarProp() map[string]any {
	return map[string]any{"type": []string{"string", "number", "null"}}
}
