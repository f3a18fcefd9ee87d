package openaq

// LocationMetadata is the small per-location record used to enrich measurement
// rows. It is built fresh each run and never persisted independently.
type LocationMetadata struct {
	LocationID   int64
	LocationName string
	Country      string
	Provider     string
}

// locationsResponse mirrors the relevant shape of the /v3/locations payload.
type locationsResponse struct {
	Results []locationResult `json:"results"`
}

type locationResult struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Country  namedField `json:"country"`
	Provider namedField `json:"provider"`
}

type namedField struct {
	Name string `json:"name"`
}
