package intake

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(lat, lon float64) *geo.Coordinates {
	return &geo.Coordinates{Latitude: lat, Longitude: lon}
}

func TestCoordinatesAlwaysDefined(t *testing.T) {
	h := newHarness(t, func(_ *Config, d *Deps) {
		d.Location = FixedLocation{Err: ErrPermissionDenied}
	})
	center := DefaultConfig().DefaultCenter

	assert.Equal(t, center, h.c.Snapshot().Coordinates)

	require.Error(t, h.c.AcquireDeviceLocation(context.Background()))
	assert.Equal(t, center, h.c.Snapshot().Coordinates)

	require.Error(t, h.c.SearchByText(context.Background(), "nowhere"))
	assert.Equal(t, center, h.c.Snapshot().Coordinates)

	h.c.SetPointFromMap(geo.Coordinates{Latitude: 12.95, Longitude: 74.83})
	h.c.ResetLocation()
	h.waitIdle(t)
	s := h.c.Snapshot()
	assert.True(t, s.Coordinates.Valid())
}

func TestAcquireDeviceLocation(t *testing.T) {
	h := newHarness(t, func(_ *Config, d *Deps) {
		d.Location = FixedLocation{Coords: at(12.87, 74.88)}
	})

	require.NoError(t, h.c.AcquireDeviceLocation(context.Background()))

	s := h.c.Snapshot()
	assert.Equal(t, *at(12.87, 74.88), s.Coordinates)
	assert.Equal(t, "Hampankatta, Mangaluru", s.LocationText)
	assert.Equal(t, StatusFound, s.LocationStatus)
	assert.Empty(t, s.LocationWarning)
	assert.Empty(t, s.LocationError)
}

func TestAcquireDeviceLocation_OutOfArea(t *testing.T) {
	tests := []struct {
		name string
		pos  *geo.Coordinates
		warn bool
	}{
		{"north of area", at(13.6, 74.9), true},
		{"east of area", at(12.9, 75.4), true},
		{"south-west of area", at(12.3, 74.3), true},
		{"inside envelope", at(13.4, 75.3), false},
		{"centre", at(12.9141, 74.856), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(_ *Config, d *Deps) {
				d.Location = FixedLocation{Coords: tt.pos}
			})
			require.NoError(t, h.c.AcquireDeviceLocation(context.Background()))
			s := h.c.Snapshot()
			if tt.warn {
				assert.Equal(t, MsgOutOfArea, s.LocationWarning)
			} else {
				assert.Empty(t, s.LocationWarning)
			}
			assert.Equal(t, *tt.pos, s.Coordinates)
		})
	}
}

func TestAcquireDeviceLocation_ReverseFailure(t *testing.T) {
	h := newHarness(t, func(_ *Config, d *Deps) {
		d.Location = FixedLocation{Coords: at(12.9, 74.85)}
	})
	h.geo.reverse = func(geo.Coordinates) (string, error) { return "", errBoom }

	require.NoError(t, h.c.AcquireDeviceLocation(context.Background()))

	s := h.c.Snapshot()
	assert.Equal(t, "12.900000, 74.850000", s.LocationText)
	assert.Equal(t, StatusIdle, s.LocationStatus)
	assert.Empty(t, s.LocationError)
}

func TestAcquireDeviceLocation_Failures(t *testing.T) {
	tests := []struct {
		name     string
		provider LocationProvider
		want     string
	}{
		{"permission", FixedLocation{Err: ErrPermissionDenied}, MsgPermissionDenied},
		{"unavailable", FixedLocation{}, MsgPositionUnavailable},
		{"timeout", FixedLocation{Err: fmt.Errorf("gps: %w", ErrLocationTimeout)}, MsgLocationTimeout},
		{"unknown", FixedLocation{Err: errBoom}, MsgLocationUnknown},
		{"no provider", nil, MsgLocationUnsupported},
		{"invalid fix", FixedLocation{Coords: at(200, 0)}, MsgPositionUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(_ *Config, d *Deps) {
				d.Location = tt.provider
			})
			h.c.SetLocationText("typed by hand")

			err := h.c.AcquireDeviceLocation(context.Background())
			require.Error(t, err)

			s := h.c.Snapshot()
			assert.Equal(t, tt.want, s.LocationError)
			assert.Equal(t, StatusIdle, s.LocationStatus)
			assert.Equal(t, DefaultConfig().DefaultCenter, s.Coordinates)
			assert.Equal(t, "typed by hand", s.LocationText)
		})
	}
}

func TestSearchByText_RefinedQuery(t *testing.T) {
	h := newHarness(t, func(_ *Config, d *Deps) {
		d.Refiner = refinerFunc(func(string) (string, error) { return "Kadri Park, Kadri, Mangalore", nil })
	})
	h.geo.forward = func(q string) (*geo.Place, error) {
		return &geo.Place{Coords: *at(12.8856, 74.855), DisplayName: q}, nil
	}

	require.NoError(t, h.c.SearchByText(context.Background(), "kadri park"))

	s := h.c.Snapshot()
	assert.Equal(t, *at(12.8856, 74.855), s.Coordinates)
	assert.Equal(t, "Kadri Park, Kadri, Mangalore", s.LocationText)
	assert.Equal(t, StatusFound, s.LocationStatus)
	assert.Equal(t, []string{"Kadri Park, Kadri, Mangalore"}, h.geo.queries())
}

func TestSearchByText_FallsBackToRawQuery(t *testing.T) {
	h := newHarness(t, func(_ *Config, d *Deps) {
		d.Refiner = refinerFunc(func(string) (string, error) { return "Unknown Landmark, Mangalore", nil })
	})
	h.geo.forward = func(q string) (*geo.Place, error) {
		if q == "bejai church" {
			return &geo.Place{Coords: *at(12.8890, 74.8420)}, nil
		}
		return nil, geo.ErrNotFound
	}

	require.NoError(t, h.c.SearchByText(context.Background(), "bejai church"))

	s := h.c.Snapshot()
	assert.Equal(t, *at(12.8890, 74.8420), s.Coordinates)
	assert.Empty(t, s.LocationError)
	assert.Equal(t, StatusFound, s.LocationStatus)
	assert.Equal(t, []string{"Unknown Landmark, Mangalore", "bejai church"}, h.geo.queries())
}

func TestSearchByText_BothAttemptsFail(t *testing.T) {
	h := newHarness(t, func(_ *Config, d *Deps) {
		d.Refiner = refinerFunc(func(string) (string, error) { return "Somewhere Else", nil })
	})
	h.geo.forward = func(string) (*geo.Place, error) { return nil, errBoom }
	before := h.c.Snapshot().Coordinates

	err := h.c.SearchByText(context.Background(), "behind the old bus stand")
	assert.True(t, errors.Is(err, ErrLocationNotFound))

	s := h.c.Snapshot()
	assert.Equal(t, before, s.Coordinates)
	assert.Equal(t, MsgSearchFailed, s.LocationError)
	assert.Equal(t, StatusIdle, s.LocationStatus)
	assert.Len(t, h.geo.queries(), 2)
}

func TestSearchByText_RefinerFailureUsesRaw(t *testing.T) {
	h := newHarness(t, func(_ *Config, d *Deps) {
		d.Refiner = refinerFunc(func(string) (string, error) { return "", errBoom })
	})

	err := h.c.SearchByText(context.Background(), "pumpwell circle")
	require.Error(t, err)
	assert.Equal(t, []string{"pumpwell circle"}, h.geo.queries())
	assert.Equal(t, "pumpwell circle", h.c.Snapshot().LocationText)
}

func TestSearchByText_ClearsWarningAndBlankIsNoop(t *testing.T) {
	h := newHarness(t, func(_ *Config, d *Deps) {
		d.Location = FixedLocation{Coords: at(14.0, 74.0)}
	})
	h.geo.forward = func(string) (*geo.Place, error) { return &geo.Place{Coords: *at(12.9, 74.85)}, nil }

	require.NoError(t, h.c.AcquireDeviceLocation(context.Background()))
	require.Equal(t, MsgOutOfArea, h.c.Snapshot().LocationWarning)

	require.NoError(t, h.c.SearchByText(context.Background(), "   "))
	assert.Equal(t, MsgOutOfArea, h.c.Snapshot().LocationWarning)
	assert.Empty(t, h.geo.queries())

	require.NoError(t, h.c.SearchByText(context.Background(), "state bank"))
	assert.Empty(t, h.c.Snapshot().LocationWarning)
}

func TestMapPointSurvivesReverseFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.geo.reverse = func(geo.Coordinates) (string, error) { return "", errBoom }
	h.c.SetLocationText("old label")

	p := geo.Coordinates{Latitude: 12.87, Longitude: 74.84}
	h.c.HandleMapEvent(MapEvent{Kind: PointDragged, Coords: p})
	assert.Equal(t, p, h.c.Snapshot().Coordinates)

	h.waitIdle(t)
	s := h.c.Snapshot()
	assert.Equal(t, p, s.Coordinates)
	assert.Equal(t, "old label", s.LocationText)
	assert.Equal(t, StatusIdle, s.LocationStatus)
	assert.Empty(t, s.LocationError)
}

func TestMapPointLabelled(t *testing.T) {
	h := newHarness(t, func(_ *Config, d *Deps) {
		d.Location = FixedLocation{Coords: at(14.0, 74.0)}
	})
	require.NoError(t, h.c.AcquireDeviceLocation(context.Background()))
	require.NotEmpty(t, h.c.Snapshot().LocationWarning)

	h.geo.reverse = func(c geo.Coordinates) (string, error) { return "Kankanady", nil }
	h.c.HandleMapEvent(MapEvent{Kind: PointClicked, Coords: *at(12.88, 74.86)})
	h.waitIdle(t)

	s := h.c.Snapshot()
	assert.Equal(t, "Kankanady", s.LocationText)
	assert.Equal(t, StatusFound, s.LocationStatus)
	assert.Empty(t, s.LocationWarning)
}

func TestLastLocationToCompleteWins(t *testing.T) {
	h := newHarness(t, nil)
	release := make(chan struct{})
	h.geo.reverse = func(c geo.Coordinates) (string, error) {
		if c.Latitude == 12.80 {
			<-release
			return "slow label", nil
		}
		return "fast label", nil
	}
	h.geo.forward = func(string) (*geo.Place, error) { return &geo.Place{Coords: *at(12.95, 74.80)}, nil }

	h.c.SetPointFromMap(*at(12.80, 74.80))
	require.NoError(t, h.c.SearchByText(context.Background(), "surathkal"))
	assert.Equal(t, *at(12.95, 74.80), h.c.Snapshot().Coordinates)

	close(release)
	h.waitIdle(t)
	assert.Equal(t, "slow label", h.c.Snapshot().LocationText)
}

func TestResetLocation(t *testing.T) {
	h := newHarness(t, func(_ *Config, d *Deps) {
		d.Location = FixedLocation{Coords: at(15.0, 74.0)}
	})
	require.NoError(t, h.c.AcquireDeviceLocation(context.Background()))
	require.NotEmpty(t, h.c.Snapshot().LocationWarning)

	h.c.ResetLocation()
	s := h.c.Snapshot()
	assert.Equal(t, DefaultConfig().DefaultCenter, s.Coordinates)
	assert.Empty(t, s.LocationText)
	assert.Empty(t, s.LocationWarning)
	assert.Empty(t, s.LocationError)
	assert.Equal(t, StatusIdle, s.LocationStatus)
}

func TestChangesBroadcast(t *testing.T) {
	h := newHarness(t, nil)
	ch := h.c.Changes()
	h.c.SetLocationText("x")
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}
}
