package models

// GeoPoint is an optional latitude/longitude stamp on evidence.
type GeoPoint struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lon float64 `bson:"lon" json:"lon"`
}
