package places

import (
	"math"
	"testing"

	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type NearestSuite struct{}

var _ = Suite(&NearestSuite{})

func (s *NearestSuite) TestExactCityIsItsOwnNearest(c *C) {
	for _, city := range Curated() {
		got, dist, ok := Nearest(city.Lat, city.Lon)
		c.Assert(ok, Equals, true)
		c.Check(got.Name, Equals, city.Name)
		c.Check(dist < 0.001, Equals, true, Commentf("%s: %f km", city.Name, dist))
	}
}

func (s *NearestSuite) TestNearbyPoint(c *C) {
	// Zürich Oerlikon
	got, dist, ok := Nearest(47.4111, 8.5442)
	c.Assert(ok, Equals, true)
	c.Check(got.Name, Equals, "Zürich")
	c.Check(dist > 3 && dist < 5, Equals, true, Commentf("distance %f", dist))
}

func (s *NearestSuite) TestBernToThunDistance(c *C) {
	// Bern lies about 25 km from Thun; a point in Bern must resolve to Bern, not Thun.
	got, _, ok := Nearest(46.95, 7.44)
	c.Assert(ok, Equals, true)
	c.Check(got.Name, Equals, "Bern")
}

func (s *NearestSuite) TestInvalidCoordinates(c *C) {
	for _, tc := range [][2]float64{
		{math.NaN(), 8},
		{47, math.Inf(1)},
		{91, 8},
		{47, -181},
	} {
		_, _, ok := Nearest(tc[0], tc[1])
		c.Check(ok, Equals, false, Commentf("%v", tc))
	}
}

func (s *NearestSuite) TestValidCoordinatesBounds(c *C) {
	c.Check(ValidCoordinates(90, 180), Equals, true)
	c.Check(ValidCoordinates(-90, -180), Equals, true)
	c.Check(ValidCoordinates(0, 0), Equals, true)
	c.Check(ValidCoordinates(-90.0001, 0), Equals, false)
}

func (s *NearestSuite) TestDefaultIsFirstCurated(c *C) {
	c.Check(Default(), DeepEquals, Curated()[0])
	c.Check(Default().Lat, Equals, 47.3769)
	c.Check(Default().Lon, Equals, 8.5417)
}
