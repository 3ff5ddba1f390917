package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/assess"
	"github.com/learnercloudtech/Karunya-Kripa/client"
	"github.com/learnercloudtech/Karunya-Kripa/config"
	"github.com/learnercloudtech/Karunya-Kripa/geo"
	"github.com/learnercloudtech/Karunya-Kripa/intake"
	"github.com/learnercloudtech/Karunya-Kripa/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "File one incident report",
	Long: `Runs one intake session against the configured API: sets the location
from --lat/--lon or a --search query, attaches the media, waits for the
priority assessment and submits. Prints the WhatsApp hand-off link on success.

Example:
  karunya report --name Asha --phone 9876543210 \
    -d "Dog hit by a bike near the bus stand, leg bleeding" \
    -m ./dog.jpg --search "near Hampankatta circle"`,
	RunE: runReport,
}

func init() {
	f := reportCmd.Flags()
	f.String("type", "", "report type: emergency, abuse, missing_pet, found_pet, sterilization (default intake.category)")
	f.StringP("description", "d", "", "what happened")
	f.String("name", "", "reporter name")
	f.String("phone", "", "reporter phone number")
	f.StringP("media", "m", "", "path to a photo or video")
	f.Float64("lat", 0, "device latitude")
	f.Float64("lon", 0, "device longitude")
	f.StringP("search", "s", "", "landmark or address to search for")
	f.StringP("location", "l", "", "location text to send (defaults to the geocoded label)")
	f.Duration("timeout", 3*time.Minute, "overall time limit")
}

func runReport(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	typ, _ := f.GetString("type")
	desc, _ := f.GetString("description")
	name, _ := f.GetString("name")
	phone, _ := f.GetString("phone")
	mediaPath, _ := f.GetString("media")
	search, _ := f.GetString("search")
	locText, _ := f.GetString("location")
	timeout, _ := f.GetDuration("timeout")
	out := cmd.OutOrStdout()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	icfg, err := intakeConfig(cfg, typ)
	if err != nil {
		return err
	}
	assessor, refiner, err := newAssessor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	deps := intake.Deps{
		Geocoder:  geo.NewNominatim(nominatimConfig(cfg), logger),
		Assessor:  assessor,
		Refiner:   refiner,
		Submitter: client.New(cfg.API.BaseURL, cfg.API.Timeout, logger),
	}
	if f.Changed("lat") || f.Changed("lon") {
		lat, _ := f.GetFloat64("lat")
		lon, _ := f.GetFloat64("lon")
		deps.Location = intake.FixedLocation{Coords: &geo.Coordinates{Latitude: lat, Longitude: lon}}
	}

	c, err := intake.New(icfg, deps, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	c.SetReporter(name, phone)
	c.SetDescription(desc)

	if mediaPath != "" {
		if err := attachMedia(c, mediaPath); err != nil {
			return err
		}
	}

	if deps.Location != nil {
		if err := c.AcquireDeviceLocation(ctx); err != nil {
			fmt.Fprintf(out, "Location: %s\n", c.Snapshot().LocationError)
		}
	}
	if search != "" {
		if err := c.SearchByText(ctx, search); err != nil {
			fmt.Fprintf(out, "Location: %s\n", c.Snapshot().LocationError)
		}
	}
	if locText != "" {
		c.SetLocationText(locText)
	}
	if s := c.Snapshot(); s.LocationText == "" {
		c.SetLocationText(locationFallback(s))
	}

	if err := c.WaitIdle(ctx); err != nil {
		return fmt.Errorf("waiting for assessment: %w", err)
	}
	s := c.Snapshot()
	printDraft(out, s)

	rep, err := c.Submit(ctx)
	if err != nil {
		var verr *intake.ValidationError
		if errors.As(err, &verr) {
			fields := make([]string, 0, len(verr.Fields))
			for k := range verr.Fields {
				fields = append(fields, k)
			}
			sort.Strings(fields)
			for _, k := range fields {
				fmt.Fprintf(out, "  %s: %s\n", k, verr.Fields[k])
			}
			return err
		}
		fmt.Fprintf(out, "Submission failed: %s\n", c.Snapshot().SubmissionError)
		return err
	}

	s = c.Snapshot()
	fmt.Fprintf(out, "\nReport %s submitted.\n", rep.ID.Hex())
	fmt.Fprintf(out, "Send it to the rescue team:\n  %s\n", s.HandoffURL)
	fmt.Fprintf(out, "%s\n", s.HandoffReminder)
	return nil
}

// locationFallback is the text sent when no place name was found or given.
func locationFallback(s intake.State) string {
	if t := strings.TrimSpace(s.LocationText); t != "" {
		return t
	}
	return s.Coordinates.String()
}

func printDraft(w io.Writer, s intake.State) {
	fmt.Fprintf(w, "Type:        %s\n", s.Category.Title())
	fmt.Fprintf(w, "Location:    %s (%s)\n", s.LocationText, s.Coordinates)
	if s.LocationWarning != "" {
		fmt.Fprintf(w, "             %s\n", s.LocationWarning)
	}
	if s.MediaNotice != "" {
		fmt.Fprintf(w, "Media:       %s\n", s.MediaNotice)
	}
	if s.Assessment != nil {
		fmt.Fprintf(w, "Priority:    %s (%s)\n", s.Assessment.Priority, s.Assessment.Justification)
	}
}

func intakeConfig(c *config.Config, typ string) (intake.Config, error) {
	if typ == "" {
		typ = c.Intake.Category
	}
	rt := models.ReportType(typ)
	if !rt.Valid() {
		return intake.Config{}, fmt.Errorf("unknown report type %q", typ)
	}
	return intake.Config{
		Category:           rt,
		DefaultCenter:      c.Intake.Center(),
		OutOfAreaThreshold: c.Intake.OutOfAreaThreshold,
		TextDelay:          c.Intake.TextDelay,
		MediaDelay:         c.Intake.MediaDelay,
		MinDescription:     c.Intake.MinDescription,
		MaxMediaBytes:      c.Intake.MaxMediaBytes,
		HandoffNumber:      c.Intake.HandoffNumber,
		Preview:            filePreview,
	}, nil
}

// newAssessor returns the configured model as both assessor and refiner.
func newAssessor(ctx context.Context, c *config.Config, log *zap.Logger) (intake.Assessor, intake.Refiner, error) {
	switch c.Assessor.Provider {
	case "none":
		return assess.Disabled, assess.Disabled, nil
	case "gemini":
		g, err := assess.NewGemini(ctx, assess.GeminiConfig{
			APIKey: c.Assessor.Gemini.APIKey,
			Model:  c.Assessor.Gemini.Model,
			Region: c.Assessor.Region,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return g, g, nil
	default:
		o := assess.NewOllama(assess.OllamaConfig{
			BaseURL:     c.Assessor.Ollama.BaseURL,
			TextModel:   c.Assessor.Ollama.TextModel,
			VisionModel: c.Assessor.Ollama.VisionModel,
			Region:      c.Assessor.Region,
			Timeout:     c.Assessor.Ollama.Timeout,
		}, log)
		return o, o, nil
	}
}

// readMedia loads a file and works out its MIME type from the extension,
// sniffing the content when the extension is unknown.
func readMedia(path string) (intake.MediaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return intake.MediaFile{}, fmt.Errorf("read media: %w", err)
	}
	mt := mime.TypeByExtension(filepath.Ext(path))
	if base, _, err := mime.ParseMediaType(mt); err == nil {
		mt = base
	} else {
		mt = http.DetectContentType(data)
	}
	return intake.MediaFile{Name: filepath.Base(path), MIMEType: mt, Data: data}, nil
}

// attachMedia reads path into the session, keeping the user-facing
// message and the underlying sentinel.
func attachMedia(c *intake.Coordinator, path string) error {
	m, err := readMedia(path)
	if err != nil {
		return err
	}
	if err := c.SelectMedia(m); err != nil {
		return fmt.Errorf("%s: %w", c.Snapshot().MediaError, err)
	}
	return nil
}

// localPreview points at the attached file itself; there is nothing to
// release.
type localPreview struct{ url string }

func (p localPreview) URL() string  { return p.url }
func (p localPreview) Close() error { return nil }

func filePreview(m intake.MediaFile) (intake.Preview, error) {
	return localPreview{url: "file://" + m.Name}, nil
}
