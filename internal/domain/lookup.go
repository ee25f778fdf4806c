package domain

import "time"

// LookupKind names one of the admin-managed catalog lookup tables.
type LookupKind string

const (
	KindCategory  LookupKind = "categories"
	KindUnit      LookupKind = "units"
	KindTrademark LookupKind = "trademarks"
)

func (k LookupKind) Valid() bool {
	switch k {
	case KindCategory, KindUnit, KindTrademark:
		return true
	}
	return false
}

// Lookup is a category, unit of measure or trademark.
type Lookup struct {
	ID        string     `json:"id"`
	Kind      LookupKind `json:"-"`
	Key       string     `json:"key"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
}
