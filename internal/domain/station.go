package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SRID is the spatial reference of every station geometry (WGS 84).
const SRID = 4326

// ErrInvalidCoordinates is returned for longitudes outside [-180, 180] or
// latitudes outside [-90, 90].
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Point is a WGS 84 position.
type Point struct {
	Lon float64
	Lat float64
}

// WKT renders the point as EWKT with its SRID.
func (p Point) WKT() string {
	return fmt.Sprintf("SRID=%d;POINT(%g %g)", SRID, p.Lon, p.Lat)
}

// Station is an authoritative weather station. Coordinates are only settable
// through NewStation and SetCoordinates so the geometry always follows them.
type Station struct {
	WIGOSID   string
	Name      string
	Territory *string
	Elevation *float64

	lon  float64
	lat  float64
	geom Point
}

// NewStation builds a station with validated coordinates.
func NewStation(wigosID, name string, lon, lat float64) (Station, error) {
	if wigosID == "" {
		return Station{}, errors.New("station has no wigos id")
	}
	s := Station{WIGOSID: wigosID, Name: name}
	if err := s.SetCoordinates(lon, lat); err != nil {
		return Station{}, err
	}
	return s, nil
}

// SetCoordinates moves the station and recomputes its geometry.
func (s *Station) SetCoordinates(lon, lat float64) error {
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: lon=%g lat=%g", ErrInvalidCoordinates, lon, lat)
	}
	s.lon, s.lat = lon, lat
	s.geom = Point{Lon: lon, Lat: lat}
	return nil
}

func (s Station) Longitude() float64 { return s.lon }
func (s Station) Latitude() float64  { return s.lat }
func (s Station) Geom() Point        { return s.geom }

type stationJSON struct {
	WIGOSID   string   `json:"wigos_id"`
	Name      string   `json:"name"`
	Territory *string  `json:"territory"`
	Longitude float64  `json:"longitude"`
	Latitude  float64  `json:"latitude"`
	Elevation *float64 `json:"elevation"`
}

// MarshalJSON renders the plain station record served by the query API.
func (s Station) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.record())
}

func (s Station) record() stationJSON {
	return stationJSON{
		WIGOSID:   s.WIGOSID,
		Name:      s.Name,
		Territory: s.Territory,
		Longitude: s.lon,
		Latitude:  s.lat,
		Elevation: s.Elevation,
	}
}

// GeoJSONFeature is a station rendered as a GeoJSON point feature.
type GeoJSONFeature struct {
	Type       string          `json:"type"`
	ID         string          `json:"id"`
	Geometry   GeoJSONGeometry `json:"geometry"`
	Properties stationJSON     `json:"properties"`
}

// GeoJSONGeometry is a GeoJSON point.
type GeoJSONGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// GeoJSONFeatureCollection wraps station features.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

// Feature renders the station as a GeoJSON feature.
func (s Station) Feature() GeoJSONFeature {
	return GeoJSONFeature{
		Type: "Feature",
		ID:   s.WIGOSID,
		Geometry: GeoJSONGeometry{
			Type:        "Point",
			Coordinates: [2]float64{s.geom.Lon, s.geom.Lat},
		},
		Properties: s.record(),
	}
}

// NewFeatureCollection renders stations as a GeoJSON feature collection.
func NewFeatureCollection(stations []Station) GeoJSONFeatureCollection {
	features := make([]GeoJSONFeature, len(stations))
	for i, s := range stations {
		features[i] = s.Feature()
	}
	return GeoJSONFeatureCollection{Type: "FeatureCollection", Features: features}
}

// StationIdentifier is an alternate identifier for a station.
type StationIdentifier struct {
	Identifier string
	WIGOSID    string
}
