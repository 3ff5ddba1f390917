package intake

import (
	"strings"
	"testing"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/assess"
	"github.com/learnercloudtech/Karunya-Kripa/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortDescriptionNeverAssessed(t *testing.T) {
	h := newHarness(t, nil)

	for _, text := range []string{"", "d", "dog hurt", "  dog   hurt   ", "fourteen chars"} {
		h.c.SetDescription(text)
	}
	time.Sleep(100 * time.Millisecond)
	h.waitIdle(t)

	assert.Empty(t, h.assess.requests())
	s := h.c.Snapshot()
	assert.Nil(t, s.Assessment)
	assert.False(t, s.AssessmentInFlight)
}

func TestRapidEditsFireOnce(t *testing.T) {
	h := newHarness(t, func(cfg *Config, _ *Deps) {
		cfg.TextDelay = 80 * time.Millisecond
	})

	base := "injured dog near the market"
	for i := 1; i <= len(base); i++ {
		h.c.SetDescription(base[:i])
	}
	h.waitIdle(t)

	reqs := h.assess.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, base, reqs[0].Description)
	assert.Nil(t, reqs[0].Image)
	assert.Equal(t, models.ReportEmergency, reqs[0].Category)

	s := h.c.Snapshot()
	require.NotNil(t, s.Assessment)
	assert.Equal(t, assess.PriorityMedium, s.Assessment.Priority)
	assert.False(t, s.AssessmentInFlight)
}

func TestDroppingBelowThresholdCancelsPendingTimer(t *testing.T) {
	h := newHarness(t, func(cfg *Config, _ *Deps) {
		cfg.TextDelay = 50 * time.Millisecond
	})

	h.c.SetDescription("a puppy stuck in a drain")
	h.c.SetDescription("a puppy")
	time.Sleep(120 * time.Millisecond)
	h.waitIdle(t)

	assert.Empty(t, h.assess.requests())
}

func TestVideoSkipsAssessment(t *testing.T) {
	h := newHarness(t, nil)

	h.c.SetDescription("cow with a wounded leg on the highway")
	require.NoError(t, h.c.SelectMedia(video("cow.mp4")))
	h.c.SetDescription("cow with a wounded leg on the highway, bleeding")
	time.Sleep(100 * time.Millisecond)
	h.waitIdle(t)

	assert.Empty(t, h.assess.requests())
	s := h.c.Snapshot()
	assert.Nil(t, s.Assessment)
	assert.Equal(t, MsgVideoSkipped, s.MediaNotice)
}

func TestVideoClearsEarlierAssessment(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.c.SelectMedia(image("dog.jpg")))
	h.waitIdle(t)
	require.NotNil(t, h.c.Snapshot().Assessment)

	require.NoError(t, h.c.SelectMedia(video("dog.mp4")))
	s := h.c.Snapshot()
	assert.Nil(t, s.Assessment)
	assert.Equal(t, MsgVideoSkipped, s.MediaNotice)
	assert.Len(t, h.assess.requests(), 1)

	require.NoError(t, h.c.SelectMedia(image("dog2.jpg")))
	assert.Empty(t, h.c.Snapshot().MediaNotice)
	h.waitIdle(t)
	assert.Len(t, h.assess.requests(), 2)
}

func TestImageAssessmentEndToEnd(t *testing.T) {
	h := newHarness(t, func(cfg *Config, _ *Deps) {
		d := DefaultConfig()
		cfg.TextDelay = d.TextDelay
		cfg.MediaDelay = d.MediaDelay
	})
	h.assess.fn = func(assess.Request) (assess.Result, error) {
		return assess.Result{Priority: "High", Justification: "Visible wound"}, nil
	}

	h.c.SetDescription("dog bleeding badly!!")
	require.NoError(t, h.c.SelectMedia(image("wound.jpg")))

	time.Sleep(150 * time.Millisecond)
	require.Eventually(t, func() bool {
		s := h.c.Snapshot()
		return s.Assessment != nil && !s.AssessmentInFlight
	}, time.Second, 10*time.Millisecond)

	reqs := h.assess.requests()
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].Image)
	assert.Equal(t, []byte("jpeg:wound.jpg"), reqs[0].Image.Data)
	assert.Equal(t, "dog bleeding badly!!", reqs[0].Description)

	assert.Equal(t, &assess.Result{Priority: "High", Justification: "Visible wound"}, h.c.Snapshot().Assessment)
}

func TestAssessmentFailureFallsBack(t *testing.T) {
	h := newHarness(t, nil)
	h.assess.fn = func(assess.Request) (assess.Result, error) {
		return assess.Result{}, errBoom
	}

	h.c.SetDescription("stray cat with an eye infection")
	h.waitIdle(t)

	s := h.c.Snapshot()
	require.NotNil(t, s.Assessment)
	assert.Equal(t, assess.PriorityManualReview, s.Assessment.Priority)
	assert.Equal(t, "Analysis failed.", s.Assessment.Justification)
	assert.False(t, s.AssessmentInFlight)
}

func TestInFlightAssessmentStillApplies(t *testing.T) {
	h := newHarness(t, nil)
	release := make(chan struct{})
	h.assess.fn = func(req assess.Request) (assess.Result, error) {
		if strings.HasPrefix(req.Description, "first") {
			<-release
			return assess.Result{Priority: "Low", Justification: "first"}, nil
		}
		return assess.Result{Priority: "High", Justification: "second"}, nil
	}

	h.c.SetDescription("first report of a limping dog")
	require.Eventually(t, func() bool { return len(h.assess.requests()) == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, h.c.Snapshot().AssessmentInFlight)

	h.c.SetDescription("second report of a limping dog")
	require.Eventually(t, func() bool {
		a := h.c.Snapshot().Assessment
		return a != nil && a.Justification == "second"
	}, time.Second, 5*time.Millisecond)
	assert.True(t, h.c.Snapshot().AssessmentInFlight)

	close(release)
	h.waitIdle(t)

	s := h.c.Snapshot()
	assert.Equal(t, "first", s.Assessment.Justification)
	assert.False(t, s.AssessmentInFlight)
}

func TestInFlightAssessmentDroppedAfterClear(t *testing.T) {
	h := newHarness(t, nil)
	release := make(chan struct{})
	h.assess.fn = func(assess.Request) (assess.Result, error) {
		<-release
		return assess.Result{Priority: "High", Justification: "late"}, nil
	}

	h.c.SetDescription("goat tangled in a wire fence")
	require.Eventually(t, func() bool { return len(h.assess.requests()) == 1 }, time.Second, 5*time.Millisecond)

	h.c.SetDescription("goat")
	assert.False(t, h.c.Snapshot().AssessmentInFlight)

	close(release)
	h.waitIdle(t)
	assert.Nil(t, h.c.Snapshot().Assessment)
}

func TestClearMediaFallsBackToText(t *testing.T) {
	h := newHarness(t, nil)

	h.c.SetDescription("short")
	require.NoError(t, h.c.SelectMedia(image("a.jpg")))
	h.waitIdle(t)
	require.NotNil(t, h.c.Snapshot().Assessment)

	h.c.ClearMedia()
	s := h.c.Snapshot()
	assert.Nil(t, s.Media)
	assert.Nil(t, s.Assessment)
}
