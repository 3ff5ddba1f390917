package intake

import (
	"context"
	"fmt"
	"strings"

	"github.com/learnercloudtech/Karunya-Kripa/geo"

	"go.uber.org/zap"
)

// MapEventKind distinguishes the two ways a point is picked on the map.
type MapEventKind int

const (
	PointDragged MapEventKind = iota
	PointClicked
)

func (k MapEventKind) String() string {
	if k == PointDragged {
		return "dragged"
	}
	return "clicked"
}

// MapEvent is a coordinate change coming from the interactive map.
type MapEvent struct {
	Kind   MapEventKind
	Coords geo.Coordinates
}

// FixedLocation is a LocationProvider answering with a preset position,
// or with Err when no position is known.
type FixedLocation struct {
	Coords *geo.Coordinates
	Err    error
}

// CurrentPosition implements LocationProvider.
func (f FixedLocation) CurrentPosition(ctx context.Context) (geo.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return geo.Coordinates{}, err
	}
	if f.Err != nil {
		return geo.Coordinates{}, f.Err
	}
	if f.Coords == nil {
		return geo.Coordinates{}, ErrPositionUnavailable
	}
	return *f.Coords, nil
}

// AcquireDeviceLocation asks the provider for the current position, moves
// the point there and labels it. A failing provider leaves the point where
// it was and records a cause-specific message.
func (c *Coordinator) AcquireDeviceLocation(ctx context.Context) error {
	if !c.beginLocation(StatusLocating) {
		return ErrClosed
	}

	var (
		coords geo.Coordinates
		err    error
	)
	if c.deps.Location == nil {
		err = ErrLocationUnsupported
	} else {
		coords, err = c.deps.Location.CurrentPosition(ctx)
	}
	if err == nil && !coords.Valid() {
		err = fmt.Errorf("%w: provider returned %s", ErrPositionUnavailable, coords)
	}
	if err != nil {
		c.logger.Info("device location failed", zap.Error(err))
		c.apply(func() {
			c.st.LocationError = locationMessage(err)
			c.st.LocationStatus = StatusIdle
		})
		return err
	}

	c.apply(func() {
		c.st.Coordinates = coords
		if coords.OutsideEnvelope(c.cfg.DefaultCenter, c.cfg.OutOfAreaThreshold) {
			c.st.LocationWarning = MsgOutOfArea
		}
	})

	label, gerr := c.deps.Geocoder.Reverse(ctx, coords)
	c.apply(func() {
		if gerr != nil {
			c.logger.Debug("reverse geocode failed", zap.Error(gerr))
			c.st.LocationText = coords.String()
			c.st.LocationStatus = StatusIdle
			return
		}
		c.st.LocationText = label
		c.st.LocationStatus = StatusFound
	})
	return nil
}

// SearchByText resolves a typed place: the query is refined first, the
// refined text is geocoded, and the raw text is tried when that fails.
// A blank query is ignored.
func (c *Coordinator) SearchByText(ctx context.Context, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if !c.beginLocation(StatusRefining) {
		return ErrClosed
	}
	c.apply(func() { c.st.LocationText = raw })

	refined := raw
	if c.deps.Refiner != nil {
		r, err := c.deps.Refiner.Refine(ctx, raw)
		switch {
		case err != nil:
			c.logger.Debug("query refinement failed", zap.Error(err))
		case strings.TrimSpace(r) != "":
			refined = r
		}
	}

	c.apply(func() {
		if refined != raw {
			c.st.LocationText = refined
		}
		c.st.LocationStatus = StatusSearching
	})

	place, err := c.deps.Geocoder.Forward(ctx, refined)
	if (err != nil || place == nil) && refined != raw {
		c.logger.Debug("refined query not found, retrying raw", zap.String("refined", refined))
		place, err = c.deps.Geocoder.Forward(ctx, raw)
	}
	if err != nil || place == nil {
		c.apply(func() {
			c.st.LocationError = MsgSearchFailed
			c.st.LocationStatus = StatusIdle
		})
		if err == nil {
			return ErrLocationNotFound
		}
		return fmt.Errorf("%w: %v", ErrLocationNotFound, err)
	}

	c.apply(func() {
		c.st.Coordinates = place.Coords
		c.st.LocationStatus = StatusFound
	})
	return nil
}

// HandleMapEvent applies a drag or click from the map.
func (c *Coordinator) HandleMapEvent(ev MapEvent) {
	c.logger.Debug("map point", zap.Stringer("kind", ev.Kind))
	c.SetPointFromMap(ev.Coords)
}

// SetPointFromMap moves the point immediately and labels it in the
// background. The point stands even if no label is found.
func (c *Coordinator) SetPointFromMap(coords geo.Coordinates) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.st.Coordinates = coords
	c.st.LocationStatus = StatusLocating
	c.mapOps++
	c.wg.Add(1)
	c.notifyLocked()
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		label, err := c.deps.Geocoder.Reverse(c.ctx, coords)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.mapOps--
		if c.closed {
			return
		}
		if err != nil {
			c.st.LocationStatus = StatusIdle
		} else {
			c.st.LocationText = label
			c.st.LocationStatus = StatusFound
			c.st.LocationWarning = ""
		}
		c.notifyLocked()
	}()
}

// SetLocationText records a manual edit of the place text.
func (c *Coordinator) SetLocationText(text string) {
	c.apply(func() { c.st.LocationText = text })
}

// ResetLocation returns the point to the default centre and clears all
// location text, warnings and status.
func (c *Coordinator) ResetLocation() {
	c.apply(func() {
		c.st.Coordinates = c.cfg.DefaultCenter
		c.st.LocationText = ""
		c.st.LocationStatus = StatusIdle
		c.st.LocationWarning = ""
		c.st.LocationError = ""
	})
}

// beginLocation clears the previous outcome of a user-started location
// operation. It reports false once the session is closed.
func (c *Coordinator) beginLocation(status LocationStatus) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.st.LocationError = ""
	c.st.LocationWarning = ""
	c.st.LocationStatus = status
	c.notifyLocked()
	return true
}

// apply runs fn under the lock and notifies, unless the session is closed.
func (c *Coordinator) apply(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	fn()
	c.notifyLocked()
}
