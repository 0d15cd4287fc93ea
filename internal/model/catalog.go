package model

// CatalogSpecialist is one member of a service's roster.
type CatalogSpecialist struct {
	Name string `json:"name"`
}

// CatalogEntry maps one service to the specialists providing it.
// The catalog is static reference data, loaded once and never mutated.
type CatalogEntry struct {
	Service     Specialization      `json:"service"`
	Specialists []CatalogSpecialist `json:"specialists"`
}
