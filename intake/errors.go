package intake

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/learnercloudtech/Karunya-Kripa/client"
)

// Location provider failures. Providers wrap or return these so the
// coordinator can show a cause-specific message.
var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("location unavailable")
	ErrLocationTimeout     = errors.New("location request timed out")
	ErrLocationUnsupported = errors.New("geolocation not supported")
)

var (
	ErrLocationNotFound = errors.New("location search found no match")
	ErrMediaTooLarge    = errors.New("media file too large")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrAlreadySubmitted = errors.New("report already submitted")
	ErrClosed           = errors.New("intake closed")
)

var errMissingCollaborator = errors.New("intake: missing collaborator")

// User-facing messages.
const (
	MsgPermissionDenied    = "User denied the request for Geolocation."
	MsgPositionUnavailable = "Location information is unavailable."
	MsgLocationTimeout     = "The request to get user location timed out."
	MsgLocationUnknown     = "An unknown error occurred."
	MsgLocationUnsupported = "Geolocation is not supported on this device."
	MsgOutOfArea           = "This location appears to be outside our service area. You can still submit the report."
	MsgSearchFailed        = "Could not find that location. Try a nearby landmark or set the point on the map."

	MsgMediaRequired       = "Media file is required."
	MsgLocationRequired    = "Please set a location on the map."
	MsgNameRequired        = "Your name is required."
	MsgPhoneRequired       = "Your phone number is required."
	MsgDescriptionRequired = "Please describe the situation."
	MsgUnsupportedMedia    = "Please attach an image or a video."
	MsgVideoSkipped        = "AI analysis will not be done for video. Video will be manually assessed."

	MsgSubmitUnexpected = "An unexpected error occurred."
)

// Fields named in ValidationError.
const (
	FieldName        = "reporterName"
	FieldPhone       = "reporterPhone"
	FieldDescription = "description"
	FieldMedia       = "media"
	FieldLocation    = "location"
)

// ValidationError lists the fields that blocked a submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid report: " + strings.Join(keys, ", ")
}

func locationMessage(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return MsgPermissionDenied
	case errors.Is(err, ErrPositionUnavailable):
		return MsgPositionUnavailable
	case errors.Is(err, ErrLocationTimeout), errors.Is(err, context.DeadlineExceeded):
		return MsgLocationTimeout
	case errors.Is(err, ErrLocationUnsupported):
		return MsgLocationUnsupported
	default:
		return MsgLocationUnknown
	}
}

func submissionMessage(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, client.ErrUnreachable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return client.ConnectivityMessage
	default:
		return MsgSubmitUnexpected
	}
}

func tooLargeMessage(limit int64) string {
	return fmt.Sprintf("File is too large. Please upload a file smaller than %dMB.", limit/(1<<20))
}
