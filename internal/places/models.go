package places

import (
	"math"
	"slices"
)

// UnknownPlaceName labels remote records that came back without any name.
const UnknownPlaceName = "Unbekannter Ort"

// MaxRemoteResults caps how many remote candidates are returned for one query.
const MaxRemoteResults = 30

// Place is a selectable location with coordinates.
type Place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Locality is a record returned by the place-name search.
// Coordinates are optional upstream.
type Locality struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Street is a record returned by the street search.
type Street struct {
	Name      string   `json:"name"`
	City      string   `json:"city"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// curated holds the popular Swiss cities. The first entry is the default location.
var curated = [...]Place{
	{Name: "Zürich", Lat: 47.3769, Lon: 8.5417},
	{Name: "Genf", Lat: 46.2044, Lon: 6.1432},
	{Name: "Basel", Lat: 47.5596, Lon: 7.5886},
	{Name: "Bern", Lat: 46.948, Lon: 7.4474},
	{Name: "Lausanne", Lat: 46.5197, Lon: 6.6323},
	{Name: "Luzern", Lat: 47.0502, Lon: 8.3093},
	{Name: "St. Gallen", Lat: 47.4245, Lon: 9.3767},
	{Name: "Lugano", Lat: 46.0037, Lon: 8.9511},
	{Name: "Winterthur", Lat: 47.5, Lon: 8.75},
	{Name: "Chur", Lat: 46.85, Lon: 9.5333},
	{Name: "Thun", Lat: 46.75, Lon: 7.6167},
	{Name: "Biel", Lat: 47.1368, Lon: 7.2467},
	{Name: "Fribourg", Lat: 46.8, Lon: 7.15},
	{Name: "Schaffhausen", Lat: 47.6958, Lon: 8.6367},
	{Name: "Neuchâtel", Lat: 46.99, Lon: 6.9292},
	{Name: "Sion", Lat: 46.2333, Lon: 7.3667},
	{Name: "Zug", Lat: 47.1667, Lon: 8.5167},
	{Name: "Davos", Lat: 46.8, Lon: 9.8333},
	{Name: "St. Moritz", Lat: 46.4986, Lon: 9.8375},
	{Name: "Interlaken", Lat: 46.6833, Lon: 7.85},
}

// Curated returns a copy of the curated city list in its fixed order.
func Curated() []Place {
	return slices.Clone(curated[:])
}

// Default returns the reference location used when coordinates are missing.
func Default() Place {
	return curated[0]
}

// coordOrDefault returns *v when it is present and finite, def otherwise.
func coordOrDefault(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return def
	}
	return *v
}

// toPlace maps a locality record, filling in the default coordinates.
func (l Locality) toPlace() Place {
	def := Default()
	name := l.Name
	if name == "" {
		name = UnknownPlaceName
	}
	return Place{
		Name: name,
		Lat:  coordOrDefault(l.Latitude, def.Lat),
		Lon:  coordOrDefault(l.Longitude, def.Lon),
	}
}
