// Package intake coordinates one incident-report form session: device
// location, map picks, geocoding, debounced priority assessment and the
// final submission with its messaging hand-off.
//
// A Coordinator owns its State. Setters and location operations mutate it
// under one lock; collaborator calls run outside the lock and apply their
// results when they return. Renderers read Snapshot and wait on Changes.
package intake

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/assess"
	"github.com/learnercloudtech/Karunya-Kripa/client"
	"github.com/learnercloudtech/Karunya-Kripa/geo"
	"github.com/learnercloudtech/Karunya-Kripa/models"

	"go.uber.org/zap"
)

// LocationProvider supplies the device position.
type LocationProvider interface {
	CurrentPosition(ctx context.Context) (geo.Coordinates, error)
}

// Geocoder converts between coordinates and place text.
type Geocoder interface {
	Reverse(ctx context.Context, c geo.Coordinates) (string, error)
	Forward(ctx context.Context, query string) (*geo.Place, error)
}

// Assessor classifies a report by urgency.
type Assessor interface {
	Assess(ctx context.Context, req assess.Request) (assess.Result, error)
}

// Refiner rewrites a free-text location into a more geocodable one.
type Refiner interface {
	Refine(ctx context.Context, raw string) (string, error)
}

// Submitter persists a finished report.
type Submitter interface {
	SubmitReport(ctx context.Context, r client.NewReport) (*models.Report, error)
}

// Preview is a locally created handle for showing the attached media.
type Preview interface {
	io.Closer
	URL() string
}

// PreviewFunc creates a Preview for a newly attached file.
type PreviewFunc func(MediaFile) (Preview, error)

// LocationStatus tracks in-flight location work.
type LocationStatus string

const (
	StatusIdle      LocationStatus = "idle"
	StatusLocating  LocationStatus = "locating"
	StatusSearching LocationStatus = "searching"
	StatusRefining  LocationStatus = "refining"
	StatusFound     LocationStatus = "found"
)

// Phase is the submission lifecycle.
type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseSubmitting Phase = "submitting"
	PhaseSubmitted  Phase = "submitted"
	PhaseFailed     Phase = "failed"
)

// State is a point-in-time copy of the form.
type State struct {
	Category    models.ReportType
	Description string
	Media       *MediaFile
	PreviewURL  string
	MediaNotice string
	MediaError  string

	Coordinates     geo.Coordinates
	LocationText    string
	LocationStatus  LocationStatus
	LocationWarning string
	LocationError   string

	Assessment         *assess.Result
	AssessmentInFlight bool

	ReporterName  string
	ReporterPhone string

	Phase           Phase
	FieldErrors     map[string]string
	SubmissionError string
	Report          *models.Report
	HandoffURL      string
	HandoffMessage  string
	HandoffReminder string
}

// Config holds the per-session settings.
type Config struct {
	Category           models.ReportType
	DefaultCenter      geo.Coordinates
	OutOfAreaThreshold float64
	TextDelay          time.Duration
	MediaDelay         time.Duration
	MinDescription     int
	MaxMediaBytes      int64
	HandoffNumber      string
	Preview            PreviewFunc
}

// DefaultConfig returns the Mangaluru service-area defaults.
func DefaultConfig() Config {
	return Config{
		Category:           models.ReportEmergency,
		DefaultCenter:      geo.Coordinates{Latitude: 12.9141, Longitude: 74.8560},
		OutOfAreaThreshold: 0.5,
		TextDelay:          time.Second,
		MediaDelay:         100 * time.Millisecond,
		MinDescription:     15,
		MaxMediaBytes:      50 << 20,
		HandoffNumber:      "919845255777",
	}
}

// Deps are the collaborators of a Coordinator. Location and Refiner are
// optional.
type Deps struct {
	Location  LocationProvider
	Geocoder  Geocoder
	Assessor  Assessor
	Refiner   Refiner
	Submitter Submitter
}

// Coordinator runs one intake session.
type Coordinator struct {
	cfg    Config
	deps   Deps
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	st      State
	preview Preview
	changed chan struct{}
	closed  bool

	// timer is the single pending assessment; timerSeq identifies it so a
	// fire racing with a replacement is ignored.
	timer    *time.Timer
	timerSeq uint64

	// assessGen is bumped whenever the assessment is cleared; calls
	// dispatched under an older generation are dropped on completion.
	assessGen   uint64
	assessCur   int
	assessTotal int

	mapOps int
}

// New starts a session seeded with the default centre.
func New(cfg Config, deps Deps, logger *zap.Logger) (*Coordinator, error) {
	if deps.Geocoder == nil || deps.Assessor == nil || deps.Submitter == nil {
		return nil, fmt.Errorf("%w: geocoder, assessor and submitter are required", errMissingCollaborator)
	}
	def := DefaultConfig()
	if cfg.Category == "" {
		cfg.Category = def.Category
	}
	if cfg.OutOfAreaThreshold <= 0 {
		cfg.OutOfAreaThreshold = def.OutOfAreaThreshold
	}
	if cfg.TextDelay <= 0 {
		cfg.TextDelay = def.TextDelay
	}
	if cfg.MediaDelay <= 0 {
		cfg.MediaDelay = def.MediaDelay
	}
	if cfg.MinDescription <= 0 {
		cfg.MinDescription = def.MinDescription
	}
	if cfg.MaxMediaBytes <= 0 {
		cfg.MaxMediaBytes = def.MaxMediaBytes
	}
	if cfg.HandoffNumber == "" {
		cfg.HandoffNumber = def.HandoffNumber
	}
	if !cfg.DefaultCenter.Valid() {
		return nil, fmt.Errorf("intake: invalid default centre %s", cfg.DefaultCenter)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		cfg:     cfg,
		deps:    deps,
		logger:  logger.Named("intake").With(zap.String("category", string(cfg.Category))),
		ctx:     ctx,
		cancel:  cancel,
		changed: make(chan struct{}),
		st: State{
			Category:       cfg.Category,
			Coordinates:    cfg.DefaultCenter,
			LocationStatus: StatusIdle,
			Phase:          PhaseEditing,
		},
	}
	return c, nil
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.st
	if c.st.Media != nil {
		m := *c.st.Media
		s.Media = &m
	}
	if c.st.Assessment != nil {
		a := *c.st.Assessment
		s.Assessment = &a
	}
	if c.st.FieldErrors != nil {
		s.FieldErrors = make(map[string]string, len(c.st.FieldErrors))
		for k, v := range c.st.FieldErrors {
			s.FieldErrors[k] = v
		}
	}
	return s
}

// Changes returns a channel closed at the next state change.
func (c *Coordinator) Changes() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

// WaitIdle blocks until no assessment is pending or running and no
// background geocode is in flight.
func (c *Coordinator) WaitIdle(ctx context.Context) error {
	for {
		c.mu.Lock()
		idle := c.timer == nil && c.assessTotal == 0 && c.mapOps == 0
		ch := c.changed
		closed := c.closed
		c.mu.Unlock()

		if idle || closed {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// Close ends the session: the pending timer is stopped, background calls
// are cancelled and awaited, and the preview handle is released.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.releasePreviewLocked()
	c.notifyLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// SetReporter records the reporter's identity.
func (c *Coordinator) SetReporter(name, phone string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.st.ReporterName = name
	c.st.ReporterPhone = phone
	c.notifyLocked()
}

// SetDescription updates the incident text and re-evaluates the assessment.
func (c *Coordinator) SetDescription(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.st.Description = text
	c.inputChangedLocked()
	c.notifyLocked()
}

func (c *Coordinator) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}
