package domain

import (
	"math"
	"testing"
)

func TestFromLonLat(t *testing.T) {
	tests := []struct {
		name    string
		pair    []float64
		want    Coordinate
		wantErr bool
	}{
		{"swaps wire order", []float64{14.4016, 50.0911}, Coordinate{Lat: 50.0911, Lng: 14.4016}, false},
		{"southern and western", []float64{-58.3816, -34.6037}, Coordinate{Lat: -34.6037, Lng: -58.3816}, false},
		{"too few components", []float64{14.4}, Coordinate{}, true},
		{"too many components", []float64{14.4, 50.1, 200}, Coordinate{}, true},
		{"nil pair", nil, Coordinate{}, true},
		// A lat,lng pair sent where lng,lat is expected puts 120 in the latitude slot.
		{"mixed-up order out of range", []float64{-33.9, 120.5}, Coordinate{}, true},
		{"NaN component", []float64{math.NaN(), 50}, Coordinate{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromLonLat(tt.pair)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLonLatRoundTrip(t *testing.T) {
	c := Coordinate{Lat: 50.1085, Lng: 14.5960}

	pair := c.LonLat()
	if pair[0] != c.Lng || pair[1] != c.Lat {
		t.Fatalf("LonLat() = %v", pair)
	}

	back, err := FromLonLat(pair)
	if err != nil || back != c {
		t.Fatalf("FromLonLat(LonLat()) = %+v, %v", back, err)
	}
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		in      string
		want    Coordinate
		wantErr bool
	}{
		{"50.1085,14.5960", Coordinate{Lat: 50.1085, Lng: 14.596}, false},
		{" 50.1085 , 14.5960 ", Coordinate{Lat: 50.1085, Lng: 14.596}, false},
		{"-34.6,-58.38", Coordinate{Lat: -34.6, Lng: -58.38}, false},
		{"50.1085", Coordinate{}, true},
		{"50.1,14.5,3", Coordinate{}, true},
		{"abc,14.5", Coordinate{}, true},
		{"50.1,xyz", Coordinate{}, true},
		{"91,14.5", Coordinate{}, true},
		{"50.1,181", Coordinate{}, true},
		{"", Coordinate{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCoordinate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCoordinateString(t *testing.T) {
	c := Coordinate{Lat: 50.0911, Lng: 14.4016}
	if got := c.String(); got != "50.0911,14.4016" {
		t.Fatalf("String() = %q", got)
	}

	back, err := ParseCoordinate(c.String())
	if err != nil || back != c {
		t.Fatalf("ParseCoordinate(String()) = %+v, %v", back, err)
	}
}

func TestNormalizeAddress(t *testing.T) {
	if got := NormalizeAddress("  Pražský   Hrad \t"); got != "pražský hrad" {
		t.Fatalf("NormalizeAddress = %q", got)
	}
}
