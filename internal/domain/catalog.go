package domain

// CatalogStation is one station entry from the external station catalog, as
// published. Fields the catalog omits are nil or empty.
type CatalogStation struct {
	WIGOSID     string
	Name        string
	Territory   *string
	Longitude   *float64
	Latitude    *float64
	Elevation   *float64
	Identifiers []CatalogIdentifier
}

// CatalogIdentifier is one WIGOS identifier listed for a catalog station.
type CatalogIdentifier struct {
	ID      string
	Primary bool
}

// PrimaryID returns the station's WIGOS id, falling back to the first listed
// identifier when the catalog left it blank.
func (c CatalogStation) PrimaryID() string {
	if c.WIGOSID != "" {
		return c.WIGOSID
	}
	if len(c.Identifiers) > 0 {
		return c.Identifiers[0].ID
	}
	return ""
}

// Aliases returns the non-primary identifiers, skipping blanks and the
// station's own id.
func (c CatalogStation) Aliases() []string {
	primary := c.PrimaryID()
	var out []string
	for _, id := range c.Identifiers {
		if id.Primary || id.ID == "" || id.ID == primary {
			continue
		}
		out = append(out, id.ID)
	}
	return out
}
