package constants

// InvoiceStatus is the canonical status reported for a processed invoice.
type InvoiceStatus string

// Stable values (returned to callers and written to logs).
const (
	InvoiceStatusNormalized InvoiceStatus = "NORMALIZED" // dry run, nothing persisted
	InvoiceStatusPersisted  InvoiceStatus = "PERSISTED"  // supplier resolved and lines committed
	InvoiceStatusFailed     InvoiceStatus = "FAILED"     // persistence failed, nothing committed
)
