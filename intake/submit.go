package intake

import (
	"context"
	"strings"

	"github.com/learnercloudtech/Karunya-Kripa/assess"
	"github.com/learnercloudtech/Karunya-Kripa/client"
	"github.com/learnercloudtech/Karunya-Kripa/models"

	"go.uber.org/zap"
)

// Submit validates the form, sends it and prepares the hand-off link.
// Validation failures never reach the Submitter. A rejected submission
// keeps everything entered so it can be retried.
func (c *Coordinator) Submit(ctx context.Context) (*models.Report, error) {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return nil, ErrClosed
	case c.st.Phase == PhaseSubmitting:
		c.mu.Unlock()
		return nil, ErrSubmitInProgress
	case c.st.Phase == PhaseSubmitted:
		c.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}

	c.st.SubmissionError = ""
	if errs := c.validateLocked(); len(errs) > 0 {
		c.st.FieldErrors = errs
		if msg, ok := errs[FieldMedia]; ok {
			c.st.MediaError = msg
		}
		if msg, ok := errs[FieldLocation]; ok {
			c.st.LocationError = msg
		}
		c.notifyLocked()
		c.mu.Unlock()
		return nil, &ValidationError{Fields: errs}
	}
	c.st.FieldErrors = nil
	c.st.MediaError = ""

	nr := c.payloadLocked()
	c.st.Phase = PhaseSubmitting
	c.notifyLocked()
	c.mu.Unlock()

	rep, err := c.deps.Submitter.SubmitReport(ctx, nr)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Warn("submission failed", zap.Error(err))
		c.st.Phase = PhaseFailed
		c.st.SubmissionError = submissionMessage(err)
		c.notifyLocked()
		return nil, err
	}

	h := BuildHandoff(c.cfg.HandoffNumber, nr)
	c.st.Report = rep
	c.st.HandoffMessage = h.Message
	c.st.HandoffURL = h.URL
	c.st.HandoffReminder = HandoffReminder
	c.st.Phase = PhaseSubmitted
	if rep != nil {
		c.logger.Info("report submitted", zap.String("id", rep.ID.Hex()))
	}
	c.notifyLocked()
	return rep, nil
}

func (c *Coordinator) validateLocked() map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(c.st.ReporterName) == "" {
		errs[FieldName] = MsgNameRequired
	}
	if strings.TrimSpace(c.st.ReporterPhone) == "" {
		errs[FieldPhone] = MsgPhoneRequired
	}
	if strings.TrimSpace(c.st.Description) == "" {
		errs[FieldDescription] = MsgDescriptionRequired
	}
	if c.st.Media == nil {
		errs[FieldMedia] = MsgMediaRequired
	}
	if !c.st.Coordinates.Valid() {
		errs[FieldLocation] = MsgLocationRequired
	}
	return errs
}

// payloadLocked assembles the submission from the current state. A missing
// assessment is sent as Manual Review.
func (c *Coordinator) payloadLocked() client.NewReport {
	a := assess.Result{Priority: assess.PriorityManualReview, Justification: "N/A"}
	if c.st.Assessment != nil {
		a = *c.st.Assessment
	}
	m := c.st.Media
	return client.NewReport{
		Type:            c.cfg.Category,
		Description:     c.st.Description,
		Location:        c.st.LocationText,
		ReporterName:    c.st.ReporterName,
		ReporterPhone:   c.st.ReporterPhone,
		Coordinates:     c.st.Coordinates,
		AIPriority:      a.Priority,
		AIJustification: a.Justification,
		MediaName:       m.Name,
		MediaType:       m.MIMEType,
		Media:           m.Data,
	}
}
