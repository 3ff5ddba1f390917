package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned by Forward when the query matches nothing.
var ErrNotFound = errors.New("geo: no match")

// Place is a forward-geocoding hit.
type Place struct {
	Coords      Coordinates
	DisplayName string
}

// NominatimConfig configures a Nominatim client.
type NominatimConfig struct {
	BaseURL      string
	UserAgent    string
	ViewBox      string // "minLon,minLat,maxLon,maxLat"; preferred, not bounded
	CountryCodes string
	Language     string
	MinInterval  time.Duration
	Timeout      time.Duration
}

// Nominatim talks to an OpenStreetMap Nominatim instance.
// Public instances allow one request per second; MinInterval spaces calls.
type Nominatim struct {
	cfg    NominatimConfig
	client *http.Client
	logger *zap.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// NewNominatim builds a client. A nil logger disables logging.
func NewNominatim(cfg NominatimConfig, logger *zap.Logger) *Nominatim {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org"
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = "KarunyaKripa/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Nominatim{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("nominatim"),
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Road          string `json:"road"`
		Suburb        string `json:"suburb"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		StateDistrict string `json:"state_district"`
		State         string `json:"state"`
	} `json:"address"`
}

// Reverse resolves c to a short place label built from the first three
// meaningful address parts, falling back to the display name and then to
// the numeric coordinates.
func (n *Nominatim) Reverse(ctx context.Context, c Coordinates) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	var data reverseResponse
	if err := n.get(ctx, "/reverse", q, &data); err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}

	a := data.Address
	city := firstNonEmpty(a.City, a.Town, a.Village)
	var parts []string
	for _, p := range []string{a.Road, a.Suburb, city, a.StateDistrict, a.State} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 3 {
		parts = parts[:3]
	}
	if label := strings.Join(parts, ", "); label != "" {
		return label, nil
	}
	if data.DisplayName != "" {
		return data.DisplayName, nil
	}
	return c.String(), nil
}

var leadingQualifier = regexp.MustCompile(`(?i)^(near|opposite|behind|next to|close to)\s+`)

// CleanQuery strips leading relative qualifiers ("near", "opposite", ...)
// that confuse the geocoder.
func CleanQuery(q string) string {
	return strings.TrimSpace(leadingQualifier.ReplaceAllString(strings.TrimSpace(q), ""))
}

type searchHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Forward returns the first match for query, or ErrNotFound.
func (n *Nominatim) Forward(ctx context.Context, query string) (*Place, error) {
	clean := CleanQuery(query)
	if clean == "" {
		return nil, ErrNotFound
	}
	q := url.Values{}
	q.Set("q", clean)
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("addressdetails", "1")
	if n.cfg.CountryCodes != "" {
		q.Set("countrycodes", n.cfg.CountryCodes)
	}
	if n.cfg.ViewBox != "" {
		q.Set("viewbox", n.cfg.ViewBox)
		q.Set("bounded", "0")
	}

	var hits []searchHit
	if err := n.get(ctx, "/search", q, &hits); err != nil {
		return nil, fmt.Errorf("forward geocode: %w", err)
	}
	if len(hits) == 0 {
		return nil, ErrNotFound
	}
	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("forward geocode: bad lat %q: %w", hits[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("forward geocode: bad lon %q: %w", hits[0].Lon, err)
	}
	return &Place{
		Coords:      Coordinates{Latitude: lat, Longitude: lon},
		DisplayName: hits[0].DisplayName,
	}, nil
}

func (n *Nominatim) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := n.wait(ctx); err != nil {
		return err
	}
	u := n.cfg.BaseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", n.cfg.UserAgent)
	if n.cfg.Language != "" {
		req.Header.Set("Accept-Language", n.cfg.Language)
	}

	start := time.Now()
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	n.logger.Debug("request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// wait enforces MinInterval between outgoing requests.
func (n *Nominatim) wait(ctx context.Context) error {
	if n.cfg.MinInterval <= 0 {
		return nil
	}
	n.mu.Lock()
	delay := n.cfg.MinInterval - time.Since(n.lastCall)
	if delay < 0 {
		delay = 0
	}
	n.lastCall = time.Now().Add(delay)
	n.mu.Unlock()

	if delay == 0 {
		return nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
