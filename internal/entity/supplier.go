package entity

import "time"

// Supplier is a vendor identified by its Portuguese tax id (NIF).
// Rows are created at most once per NIF and never updated by this service.
type Supplier struct {
	ID        int64     `json:"id"`
	NIF       string    `json:"supplier_nif"`
	Name      *string   `json:"supplier_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
