package geospatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const polygonGeometry = `{"type":"Polygon","coordinates":[[[88.1,21.5],[88.2,21.5],[88.2,21.6],[88.1,21.6],[88.1,21.5]]]}`

func TestValidateGeoJSONGeometry(t *testing.T) {
	geom, err := ValidateGeoJSON([]byte(polygonGeometry))
	require.NoError(t, err)
	assert.Equal(t, "Polygon", geom.GeoJSONType())
}

func TestValidateGeoJSONFeature(t *testing.T) {
	feature := `{"type":"Feature","properties":{},"geometry":` + polygonGeometry + `}`
	geom, err := ValidateGeoJSON([]byte(feature))
	require.NoError(t, err)
	assert.Equal(t, "Polygon", geom.GeoJSONType())
}

func TestValidateGeoJSONRejectsGarbage(t *testing.T) {
	_, err := ValidateGeoJSON([]byte(`{"type":"Feature"}`))
	assert.Error(t, err)

	_, err = ValidateGeoJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestAreaAndCentroid(t *testing.T) {
	geom, err := ValidateGeoJSON([]byte(polygonGeometry))
	require.NoError(t, err)

	area := CalculateArea(geom)
	assert.Greater(t, area, 0.0)
	assert.Greater(t, ConvertToHectares(area), 0.0)
	assert.Less(t, ConvertToHectares(area), area)

	centroid := CalculateCentroid(geom)
	assert.InDelta(t, 88.15, centroid.Lon(), 0.01)
	assert.InDelta(t, 21.55, centroid.Lat(), 0.01)
}
