package nominatim

// SearchOptions narrows a free-text search.
type SearchOptions struct {
	// CountryCodes is a comma-separated list of ISO 3166-1 alpha-2 codes, e.g. "ph".
	CountryCodes string
	// Limit is clamped to 1..50.
	Limit int
	// Viewbox restricts results to a bounding box when set.
	Viewbox *Viewbox
}

// Viewbox is a bounding box in decimal degrees.
type Viewbox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// SearchResult is one entry of a format=jsonv2 search response.
// Coordinates arrive as strings and are parsed by the caller.
type SearchResult struct {
	PlaceID     int64    `json:"place_id"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Type        string   `json:"type"`
	Category    string   `json:"category"`
	Importance  float64  `json:"importance"`
	OSMID       int64    `json:"osm_id"`
	OSMType     string   `json:"osm_type"`
	Address     *Address `json:"address,omitempty"`
}

type Address struct {
	Road        string `json:"road,omitempty"`
	Suburb      string `json:"suburb,omitempty"`
	City        string `json:"city,omitempty"`
	Town        string `json:"town,omitempty"`
	State       string `json:"state,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}
