package coverage

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection converts the raster into GeoJSON points, one per sample,
// carrying receivedPower, towerId and the heatmap intensity.
func (r Raster) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, len(r.Samples))
	for _, s := range r.Samples {
		f := geojson.NewFeature(orb.Point{s.Longitude, s.Latitude})
		f.Properties["receivedPower"] = s.ReceivedPowerDbm
		f.Properties["towerId"] = r.TowerID
		f.Properties["intensity"] = Intensity(s.ReceivedPowerDbm)
		fc.Append(f)
	}
	return fc
}

// FeatureCollections keys the GeoJSON of every raster by tower id.
func (r Result) FeatureCollections() map[string]*geojson.FeatureCollection {
	result := make(map[string]*geojson.FeatureCollection, len(r.Rasters))
	for _, raster := range r.Rasters {
		result[raster.TowerID] = raster.FeatureCollection()
	}
	return result
}

// Merged returns all rasters as a single collection, towers in result order.
func (r Result) Merged() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, raster := range r.Rasters {
		fc.Features = append(fc.Features, raster.FeatureCollection().Features...)
	}
	return fc
}
