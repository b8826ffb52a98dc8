package main

import "github.com/nandanugg/sonecaz/module/core/domain"

// interpolate returns steps points from a to b inclusive. Distances are
// short enough that linear interpolation in degrees is fine.
func interpolate(a, b domain.GeoPoint, steps int) []domain.GeoPoint {
	if steps < 2 {
		return []domain.GeoPoint{b}
	}
	out := make([]domain.GeoPoint, steps)
	for i := range out {
		f := float64(i) / float64(steps-1)
		out[i] = domain.GeoPoint{
			Lat: a.Lat + (b.Lat-a.Lat)*f,
			Lng: a.Lng + (b.Lng-a.Lng)*f,
		}
	}
	return out
}
