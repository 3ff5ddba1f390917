package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Near City Centre Mall", "City Centre Mall"},
		{"  opposite KMC hospital ", "KMC hospital"},
		{"Next to Hampankatta", "Hampankatta"},
		{"Kadri Park", "Kadri Park"},
		{"nearby temple", "nearby temple"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanQuery(tt.in), tt.in)
	}
}

func TestNominatim_Reverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "KarunyaKripa/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "12.9141", r.URL.Query().Get("lat"))
		w.Write([]byte(`{"display_name":"long name","address":{"road":"MG Road","suburb":"Kodialbail","town":"Mangaluru","state":"Karnataka"}}`))
	}))
	defer srv.Close()

	n := NewNominatim(NominatimConfig{BaseURL: srv.URL}, nil)
	label, err := n.Reverse(context.Background(), Coordinates{Latitude: 12.9141, Longitude: 74.856})
	require.NoError(t, err)
	assert.Equal(t, "MG Road, Kodialbail, Mangaluru", label)
}

func TestNominatim_ReverseFallbacks(t *testing.T) {
	body := `{"display_name":"Somewhere, India","address":{}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	n := NewNominatim(NominatimConfig{BaseURL: srv.URL}, nil)
	c := Coordinates{Latitude: 1.5, Longitude: 2.25}

	label, err := n.Reverse(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "Somewhere, India", label)

	body = `{"address":{}}`
	label, err = n.Reverse(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "1.500000, 2.250000", label)
}

func TestNominatim_ReverseHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n := NewNominatim(NominatimConfig{BaseURL: srv.URL}, nil)
	_, err := n.Reverse(context.Background(), Coordinates{})
	assert.Error(t, err)
}

func TestNominatim_Forward(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Kadri Park", q.Get("q"))
		assert.Equal(t, "in", q.Get("countrycodes"))
		assert.Equal(t, "74.7,12.8,75.0,13.1", q.Get("viewbox"))
		assert.Equal(t, "0", q.Get("bounded"))
		w.Write([]byte(`[{"lat":"12.8856","lon":"74.8550","display_name":"Kadri Park, Mangaluru"}]`))
	}))
	defer srv.Close()

	n := NewNominatim(NominatimConfig{
		BaseURL:      srv.URL,
		CountryCodes: "in",
		ViewBox:      "74.7,12.8,75.0,13.1",
	}, nil)
	p, err := n.Forward(context.Background(), "near Kadri Park")
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Latitude: 12.8856, Longitude: 74.855}, p.Coords)
	assert.Equal(t, "Kadri Park, Mangaluru", p.DisplayName)
}

func TestNominatim_ForwardNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	n := NewNominatim(NominatimConfig{BaseURL: srv.URL}, nil)
	_, err := n.Forward(context.Background(), "nowhere at all")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = n.Forward(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCoordinates(t *testing.T) {
	center := Coordinates{Latitude: 12.9141, Longitude: 74.8560}

	assert.True(t, Coordinates{Latitude: 13.6, Longitude: 74.9}.OutsideEnvelope(center, 0.5))
	assert.True(t, Coordinates{Latitude: 12.9, Longitude: 75.5}.OutsideEnvelope(center, 0.5))
	assert.False(t, Coordinates{Latitude: 13.2, Longitude: 74.5}.OutsideEnvelope(center, 0.5))

	assert.Equal(t, "https://www.google.com/maps?q=12.9141,74.856", center.MapsLink())
	assert.True(t, center.Valid())
	assert.False(t, Coordinates{Latitude: 91}.Valid())
}

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("74.7, 12.8, 75.0, 13.1")
	require.NoError(t, err)
	assert.True(t, b.Contains(Coordinates{Latitude: 12.9, Longitude: 74.8}))
	assert.False(t, b.Contains(Coordinates{Latitude: 13.5, Longitude: 74.8}))

	_, err = ParseBBox("1,2,3")
	assert.Error(t, err)
	_, err = ParseBBox("5,5,1,1")
	assert.Error(t, err)
}
