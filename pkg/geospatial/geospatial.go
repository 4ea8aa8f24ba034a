package geospatial

import (
	"encoding/json"
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ValidateGeoJSON parses project coordinates submitted as a GeoJSON feature
// or bare geometry and returns the geometry.
func ValidateGeoJSON(raw []byte) (orb.Geometry, error) {
	var head map[string]interface{}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}

	if head["type"] == "Feature" {
		feature, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return nil, err
		}
		if feature.Geometry == nil {
			return nil, errors.New("invalid GeoJSON: no geometry")
		}
		return feature.Geometry, nil
	}

	geom, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, err
	}
	return geom.Geometry(), nil
}

// CalculateArea calculates the area in square meters for a lon/lat geometry
func CalculateArea(geometry orb.Geometry) float64 {
	return geo.Area(geometry)
}

// CalculateCentroid calculates the centroid of a geometry
func CalculateCentroid(geometry orb.Geometry) orb.Point {
	centroid, _ := planar.CentroidArea(geometry)
	return centroid
}

// ConvertToHectares converts square meters to hectares
func ConvertToHectares(sqMeters float64) float64 {
	return sqMeters / 10000
}
