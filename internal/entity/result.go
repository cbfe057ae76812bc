package entity

import (
	"github.com/google/uuid"

	"github.com/joseph-ayodele/supplier-invoices/constants"
)

// ProcessResult is what the pipeline reports for one extraction payload.
type ProcessResult struct {
	InvoiceID uuid.UUID               `json:"invoice_id"`
	Status    constants.InvoiceStatus `json:"status"`
	Invoice   NormalizedInvoice       `json:"invoice"`
	// Dropped lists boundary repairs applied while decoding the payload.
	Dropped []string `json:"dropped,omitempty"`
}
