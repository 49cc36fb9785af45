package entities

// CatalogEntry maps a repository to its display title and owning squad.
type CatalogEntry struct {
	Repository string
	Title      string
	Category   string
	Squad      string
	Env        string
}

// DocEntry describes one published document of a service.
type DocEntry struct {
	ServiceType  string
	Title        string
	DocumentType string
	Link         string
}
