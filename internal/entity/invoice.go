package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NormalizedLineItem is one reconciled invoice line.
type NormalizedLineItem struct {
	ProductCode  *string             `json:"product_code"`
	ProductDesc  *string             `json:"product_desc"`
	Qty          decimal.NullDecimal `json:"qty"`           // 3 dp
	UnitSupplier *string             `json:"unit_supplier"` // canonical code
	PriceUnit    decimal.NullDecimal `json:"price_unit"`    // 2 dp
	PriceTotal   decimal.NullDecimal `json:"price_total"`   // 2 dp
	VATRate      decimal.NullDecimal `json:"vat_rate"`      // 2 dp
}

// NormalizedInvoice is the sanitized invoice handed to persistence.
type NormalizedInvoice struct {
	PurchaseID          *string              `json:"purchase_id"`
	PurchaseDate        *string              `json:"purchase_date"` // YYYY-MM-DD
	SupplierDescription *string              `json:"supplier_description"`
	SupplierNIF         *string              `json:"supplier_nif"` // 9 digits
	SupplierID          *int64               `json:"supplier_id"`
	Items               []NormalizedLineItem `json:"items"`
	NeedsReview         bool                 `json:"needs_review"`
	Warnings            []string             `json:"warnings,omitempty"`
}

// InvoiceRecord is a persisted invoice header.
type InvoiceRecord struct {
	ID                  uuid.UUID `json:"id"`
	PurchaseID          *string   `json:"purchase_id,omitempty"`
	PurchaseDate        *string   `json:"purchase_date,omitempty"`
	SupplierID          *int64    `json:"supplier_id,omitempty"`
	SupplierDescription *string   `json:"supplier_description,omitempty"`
	SupplierNIF         *string   `json:"supplier_nif,omitempty"`
	NeedsReview         bool      `json:"needs_review"`
	ItemCount           int       `json:"item_count"`
	CreatedAt           time.Time `json:"created_at"`
}

// LineItem is a persisted line item row.
type LineItem struct {
	ID        int64     `json:"id"`
	InvoiceID uuid.UUID `json:"invoice_id"`
	LineNo    int       `json:"line_no"`
	NormalizedLineItem
}
