package places

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

type fakeDirectory struct {
	localities    []Locality
	localitiesErr error
	streets       []Street
	streetsErr    error

	localityCalls []string
	streetCalls   []string
}

func (f *fakeDirectory) SearchLocalities(_ context.Context, name string) ([]Locality, error) {
	f.localityCalls = append(f.localityCalls, name)
	return f.localities, f.localitiesErr
}

func (f *fakeDirectory) SearchStreets(_ context.Context, name string) ([]Street, error) {
	f.streetCalls = append(f.streetCalls, name)
	return f.streets, f.streetsErr
}

func (f *fakeDirectory) calls() int {
	return len(f.localityCalls) + len(f.streetCalls)
}

func fp(v float64) *float64 { return &v }

func names(ps []Place) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestResolveEmptyQueryReturnsCurated(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		dir := &fakeDirectory{}
		r := NewResolver(dir, nil)

		got := r.Resolve(context.Background(), q)
		if !reflect.DeepEqual(got, Curated()) {
			t.Fatalf("Resolve(%q) = %v, want curated list", q, names(got))
		}
		if dir.calls() != 0 {
			t.Fatalf("Resolve(%q) made %d remote calls, want 0", q, dir.calls())
		}
	}
}

func TestResolveCuratedMatchShortCircuits(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{query: "zü", want: []string{"Zürich"}},
		{query: "ZÜ", want: []string{"Zürich"}},
		{query: "lu", want: []string{"Luzern", "Lugano"}},
		{query: "  bern ", want: []string{"Bern"}},
		{query: "st.", want: []string{"St. Gallen", "St. Moritz"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			dir := &fakeDirectory{localities: []Locality{{Name: "Remote"}}}
			r := NewResolver(dir, nil)

			got := names(r.Resolve(context.Background(), tt.query))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Resolve(%q) = %v, want %v", tt.query, got, tt.want)
			}
			if dir.calls() != 0 {
				t.Fatalf("expected no remote calls, got %d", dir.calls())
			}
		})
	}
}

func TestResolveUsesLocalities(t *testing.T) {
	dir := &fakeDirectory{
		localities: []Locality{
			{Name: "Wald ZH", Latitude: fp(47.276), Longitude: fp(8.914)},
			{Name: "Waldstatt"},
			{Latitude: fp(46.1), Longitude: fp(7.1)},
		},
		streets: []Street{{City: "Unused"}},
	}
	r := NewResolver(dir, nil)

	got := r.Resolve(context.Background(), "  Wald ")
	want := []Place{
		{Name: "Wald ZH", Lat: 47.276, Lon: 8.914},
		{Name: "Waldstatt", Lat: 47.3769, Lon: 8.5417},
		{Name: UnknownPlaceName, Lat: 46.1, Lon: 7.1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Resolve = %+v, want %+v", got, want)
	}
	if !reflect.DeepEqual(dir.localityCalls, []string{"Wald"}) {
		t.Fatalf("locality calls = %q, want [\"Wald\"]", dir.localityCalls)
	}
	if len(dir.streetCalls) != 0 {
		t.Fatalf("street search should not run when localities match")
	}
}

func TestResolveCapsRemoteResults(t *testing.T) {
	var locs []Locality
	for i := 0; i < 45; i++ {
		locs = append(locs, Locality{Name: "Ort", Latitude: fp(46 + float64(i)/100), Longitude: fp(8)})
	}
	r := NewResolver(&fakeDirectory{localities: locs}, nil)

	got := r.Resolve(context.Background(), "ort")
	if len(got) != MaxRemoteResults {
		t.Fatalf("got %d results, want %d", len(got), MaxRemoteResults)
	}
	if got[0].Lat != 46 {
		t.Fatalf("first result lat = %v, want 46 (order preserved)", got[0].Lat)
	}
}

func TestResolveStreetFallbackDedups(t *testing.T) {
	dir := &fakeDirectory{
		streets: []Street{
			{City: "Zürich", Latitude: fp(47.37), Longitude: fp(8.54)},
			{City: "Zürich", Latitude: fp(47.37), Longitude: fp(8.54)},
			{City: "Bern", Latitude: fp(46.95), Longitude: fp(7.45)},
		},
	}
	r := NewResolver(dir, nil)

	got := r.Resolve(context.Background(), "bahnhofstrasse")
	want := []Place{
		{Name: "Zürich", Lat: 47.37, Lon: 8.54},
		{Name: "Bern", Lat: 46.95, Lon: 7.45},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Resolve = %+v, want %+v", got, want)
	}
	if len(dir.localityCalls) != 1 || len(dir.streetCalls) != 1 {
		t.Fatalf("expected one call to each search, got %d/%d", len(dir.localityCalls), len(dir.streetCalls))
	}
}

func TestDedupStreets(t *testing.T) {
	got := DedupStreets([]Street{
		{City: ""},
		{City: "Olten"},
		{City: "Olten"},
		{City: "Olten", Latitude: fp(47.35), Longitude: fp(7.9)},
		{City: "Olten", Latitude: fp(47.35), Longitude: fp(7.91)},
		{Name: "no city", Latitude: fp(1), Longitude: fp(2)},
	})
	want := []Place{
		{Name: "Olten", Lat: 47.3769, Lon: 8.5417},
		{Name: "Olten", Lat: 47.35, Lon: 7.9},
		{Name: "Olten", Lat: 47.35, Lon: 7.91},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DedupStreets = %+v, want %+v", got, want)
	}
}

func TestResolveFallsBackToCurated(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")

	tests := []struct {
		name        string
		dir         *fakeDirectory
		wantStreets int
	}{
		{name: "both empty", dir: &fakeDirectory{}, wantStreets: 1},
		{name: "streets without city", dir: &fakeDirectory{streets: []Street{{Name: "x"}}}, wantStreets: 1},
		{name: "localities fail", dir: &fakeDirectory{localitiesErr: boom}, wantStreets: 0},
		{name: "streets fail", dir: &fakeDirectory{streetsErr: boom}, wantStreets: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.dir, nil)
			got := r.Resolve(context.Background(), "xyzzy")
			if !reflect.DeepEqual(got, Curated()) {
				t.Fatalf("Resolve = %v, want curated list", names(got))
			}
			if len(tt.dir.streetCalls) != tt.wantStreets {
				t.Fatalf("street calls = %d, want %d", len(tt.dir.streetCalls), tt.wantStreets)
			}
		})
	}
}

func TestResolveWithoutDirectory(t *testing.T) {
	r := NewResolver(nil, nil)
	got := r.Resolve(context.Background(), "xyzzy")
	if !reflect.DeepEqual(got, Curated()) {
		t.Fatalf("Resolve = %v, want curated list", names(got))
	}
}

func TestResolvedCoordinatesAreFinite(t *testing.T) {
	dir := &fakeDirectory{
		localities: []Locality{
			{Name: "a", Latitude: fp(math.NaN()), Longitude: fp(math.Inf(1))},
			{Name: "b"},
		},
	}
	for _, p := range NewResolver(dir, nil).Resolve(context.Background(), "qq") {
		if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
			t.Fatalf("place %q has non-finite coordinates %v/%v", p.Name, p.Lat, p.Lon)
		}
	}
}

func TestCuratedReturnsCopy(t *testing.T) {
	list := Curated()
	list[0].Name = "changed"
	if Curated()[0].Name != "Zürich" {
		t.Fatalf("mutating the returned slice changed the curated list")
	}
	if len(Curated()) != 20 {
		t.Fatalf("curated list has %d entries, want 20", len(Curated()))
	}
}
