package models

// Coordinates represents a geographical point defined by its longitude and latitude.
type Coordinates struct {
	Longitude float64 `json:"longitude"` // Longitude of the geographical point.
	Latitude  float64 `json:"latitude"`  // Latitude of the geographical point.
}

// Address is the coarse administrative address a coordinate resolves to.
// Region is the province level (시도) and SubRegion the district level (시군구).
type Address struct {
	Region    string `json:"region"`
	SubRegion string `json:"subRegion"`
}
