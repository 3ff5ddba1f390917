package intake

import (
	"strings"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/assess"

	"go.uber.org/zap"
)

// assessmentFailed replaces the assessment when the assessor errors.
var assessmentFailed = assess.Result{
	Priority:      assess.PriorityManualReview,
	Justification: "Analysis failed.",
}

// inputChangedLocked applies the assessment decision rule after a change
// to the description or the attachment.
func (c *Coordinator) inputChangedLocked() {
	m := c.st.Media
	if m != nil && !m.IsImage() {
		c.stopTimerLocked()
		c.clearAssessmentLocked()
		c.st.MediaNotice = MsgVideoSkipped
		return
	}
	c.st.MediaNotice = ""

	if m == nil && len(strings.TrimSpace(c.st.Description)) < c.cfg.MinDescription {
		c.stopTimerLocked()
		c.clearAssessmentLocked()
		return
	}

	delay := c.cfg.TextDelay
	if m != nil {
		delay = c.cfg.MediaDelay
	}
	c.stopTimerLocked()
	c.timerSeq++
	seq := c.timerSeq
	c.timer = time.AfterFunc(delay, func() { c.fire(seq) })
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) clearAssessmentLocked() {
	c.assessGen++
	c.assessCur = 0
	c.st.Assessment = nil
	c.st.AssessmentInFlight = false
}

// fire dispatches the assessment for the timer identified by seq. Calls
// already dispatched keep running; whichever finishes last is shown.
func (c *Coordinator) fire(seq uint64) {
	c.mu.Lock()
	if c.closed || c.timer == nil || seq != c.timerSeq {
		c.mu.Unlock()
		return
	}
	c.timer = nil

	req := assess.Request{
		Description: c.st.Description,
		Category:    c.cfg.Category,
	}
	if m := c.st.Media; m != nil {
		req.Image = &assess.Image{MIMEType: m.MIMEType, Data: m.Data}
	}
	gen := c.assessGen
	c.assessCur++
	c.assessTotal++
	c.st.AssessmentInFlight = true
	c.wg.Add(1)
	c.notifyLocked()
	c.mu.Unlock()

	defer c.wg.Done()
	res, err := c.deps.Assessor.Assess(c.ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.assessTotal--
	if c.closed {
		return
	}
	if gen != c.assessGen {
		c.logger.Debug("dropping superseded assessment")
		c.notifyLocked()
		return
	}
	c.assessCur--
	if err != nil {
		c.logger.Warn("assessment failed", zap.Error(err))
		res = assessmentFailed
	}
	c.st.Assessment = &res
	c.st.AssessmentInFlight = c.assessCur > 0
	c.logger.Debug("assessment applied", zap.String("priority", res.Priority))
	c.notifyLocked()
}
