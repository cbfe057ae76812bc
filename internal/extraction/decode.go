// Package extraction is the boundary between the upstream extraction step
// and the sanitizer. It turns the model's text output into a
// RawExtractionRecord, repairing what it safely can.
package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
)

// ErrNotObject is returned when the payload is not a single JSON object.
var ErrNotObject = errors.New("extraction payload is not a JSON object")

// ```json ... ``` wrappers some models put around their output
var reFence = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\n?(.*?)\\s*```\\s*$")

// synonyms maps keys seen in model output onto the field names used here,
// in priority order.
var synonyms = [][2]string{
	{"invoice_number", "purchase_id"},
	{"invoice_id", "purchase_id"},
	{"invoice_date", "purchase_date"},
	{"date", "purchase_date"},
	{"supplier_name", "supplier_description"},
	{"supplier", "supplier_description"},
	{"nif", "supplier_nif"},
	{"supplier_vat", "supplier_nif"},
	{"line_items", "items"},
	{"lines", "items"},
}

// Decoder decodes and structurally checks extraction payloads. It is safe for
// concurrent use.
type Decoder struct {
	schema *jsonschema.Schema
	logger *slog.Logger
}

// NewDecoder compiles the invoice schema.
func NewDecoder(logger *slog.Logger) (*Decoder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := CompileSchema(BuildInvoiceJSONSchema())
	if err != nil {
		return nil, err
	}
	return &Decoder{schema: schema, logger: logger}, nil
}

// Decode parses raw into a record. Numbers are kept as json.Number so no
// precision is lost before normalization. The returned list names every
// repair applied (fence strip, key renames). A schema mismatch is logged
// and tolerated; only a payload that is not a JSON object is an error.
func (d *Decoder) Decode(raw []byte) (entity.RawExtractionRecord, []string, error) {
	var repairs []string

	body := bytes.TrimSpace(raw)
	if m := reFence.FindSubmatch(body); m != nil {
		body = m[1]
		repairs = append(repairs, "code_fence")
	}
	if len(body) == 0 || body[0] != '{' {
		return nil, repairs, ErrNotObject
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, repairs, fmt.Errorf("decode extraction: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, repairs, fmt.Errorf("decode extraction: trailing data after object")
	}
	if m == nil {
		return nil, repairs, ErrNotObject
	}

	for _, syn := range synonyms {
		from, to := syn[0], syn[1]
		v, ok := m[from]
		if !ok {
			continue
		}
		// don't overwrite a value already present under the canonical key
		if cur, exists := m[to]; !exists || cur == nil {
			m[to] = v
		}
		delete(m, from)
		repairs = append(repairs, from+"->"+to)
	}

	if err := d.validate(m); err != nil {
		d.logger.Warn("extraction.decode.schema_mismatch", "err", err)
		repairs = append(repairs, "schema_mismatch")
	}
	if len(repairs) > 0 {
		d.logger.Debug("extraction.decode.repaired", "repairs", repairs)
	}
	return entity.RawExtractionRecord(m), repairs, nil
}

func (d *Decoder) validate(m map[string]any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return ValidateJSON(d.schema, b)
}
