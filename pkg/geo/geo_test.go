package geo

import (
	"math"
	"math/rand"
	"testing"
)

func TestDistanceKm_KnownPoints(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Point
		wantKm float64
		tol    float64
	}{
		{
			name:   "same point",
			a:      Point{Lat: 57.1140, Lon: 65.5550},
			b:      Point{Lat: 57.1140, Lon: 65.5550},
			wantKm: 0,
			tol:    1e-9,
		},
		{
			name:   "nearby business in Tyumen",
			a:      Point{Lat: 57.1140, Lon: 65.5550},
			b:      Point{Lat: 57.11383, Lon: 65.555162},
			wantKm: 0.0213,
			tol:    0.002,
		},
		{
			name:   "one degree of latitude",
			a:      Point{Lat: 0, Lon: 0},
			b:      Point{Lat: 1, Lon: 0},
			wantKm: 111.195,
			tol:    0.01,
		},
		{
			name:   "across the antimeridian",
			a:      Point{Lat: 0, Lon: 179.9},
			b:      Point{Lat: 0, Lon: -179.9},
			wantKm: 22.239,
			tol:    0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tol {
				t.Errorf("DistanceKm() = %f, want %f ± %f", got, tt.wantKm, tt.tol)
			}
		})
	}
}

func TestBoxAround_ScenarioRadii(t *testing.T) {
	center := Point{Lat: 57.1140, Lon: 65.5550}
	business := Point{Lat: 57.11383, Lon: 65.555162}

	if !BoxAround(center, 1).contains(business) {
		t.Error("1 km box should contain the business")
	}
	if BoxAround(center, 0.001).contains(business) {
		t.Error("1 m box should not contain the business")
	}
}

func TestBoxAround_IsSupersetOfCircle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		center := Point{Lat: rng.Float64()*170 - 85, Lon: rng.Float64()*360 - 180}
		radius := rng.Float64() * 50
		box := BoxAround(center, radius)

		p := Point{
			Lat: center.Lat + (rng.Float64()*2-1)*radius/100,
			Lon: center.Lon + (rng.Float64()*2-1)*radius/50,
		}
		if p.Lon > 180 {
			p.Lon -= 360
		}
		if p.Lon < -180 {
			p.Lon += 360
		}
		if p.Lat > 90 || p.Lat < -90 {
			continue
		}

		if DistanceKm(center, p) <= radius && !box.contains(p) {
			t.Fatalf("point %+v within %f km of %+v but outside box %+v", p, radius, center, box)
		}
	}
}

func TestBoxAround_Antimeridian(t *testing.T) {
	box := BoxAround(Point{Lat: 0, Lon: 179.95}, 20)

	if len(box.LonRanges) != 2 {
		t.Fatalf("expected split longitude ranges, got %+v", box.LonRanges)
	}
	if !box.contains(Point{Lat: 0, Lon: -179.95}) {
		t.Error("box should contain a point just across the antimeridian")
	}
	if box.contains(Point{Lat: 0, Lon: 0}) {
		t.Error("box should not contain the prime meridian")
	}
}

func TestBoxAround_HighLatitudeCoversWidestPoint(t *testing.T) {
	center := Point{Lat: 85, Lon: 20}
	radius := 100.0

	// The circle is widest in longitude slightly poleward of its center.
	d := radius / EarthRadiusKm
	lat := center.Lat * math.Pi / 180
	widestLat := math.Asin(math.Sin(lat)/math.Cos(d)) * 180 / math.Pi
	widestLon := math.Asin(math.Sin(d)/math.Cos(lat)) * 180 / math.Pi
	p := Point{Lat: widestLat, Lon: center.Lon + 0.999*widestLon}

	if dist := DistanceKm(center, p); dist > radius {
		t.Fatalf("test point should lie inside the circle, got %f km", dist)
	}
	box := BoxAround(center, radius)
	if !box.contains(p) {
		t.Errorf("point %+v within %f km of %+v but outside box %+v", p, radius, center, box)
	}
}

func TestBoxAround_Pole(t *testing.T) {
	box := BoxAround(Point{Lat: 89.99, Lon: 10}, 5)

	if len(box.LonRanges) != 1 || box.LonRanges[0].Min != -180 || box.LonRanges[0].Max != 180 {
		t.Fatalf("expected full longitude coverage near the pole, got %+v", box.LonRanges)
	}
	if box.MaxLat != 90 {
		t.Errorf("expected MaxLat clamped to 90, got %f", box.MaxLat)
	}
}
