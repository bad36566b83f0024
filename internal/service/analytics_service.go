package service

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"invoicegen/internal/logger"
	"invoicegen/internal/model"
	"invoicegen/internal/repository"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// --- DTOs ---

type TrackRequest struct {
	Event    string          `json:"event" binding:"required"`
	Path     string          `json:"path"`
	Referrer string          `json:"referrer"`
	VID      string          `json:"vid"`
	Meta     json.RawMessage `json:"meta"`
}

type SummaryResponse struct {
	Window         string                     `json:"window"`
	TotalEvents    int64                      `json:"total_events"`
	PageViews      int64                      `json:"page_views"`
	UniqueVisitors int64                      `json:"unique_visitors"`
	TopPages       []repository.PathCount     `json:"top_pages"`
	TopReferrers   []repository.ReferrerCount `json:"top_referrers"`
}

type RecentEvent struct {
	TS       string `json:"ts"`
	Event    string `json:"event"`
	Path     string `json:"path"`
	Referrer string `json:"referrer"`
	VID      string `json:"vid"`
}

// Ingestion error taxonomy. Handlers map these to status codes; everything
// else is an internal failure.
var (
	ErrInvalidEvent     = errors.New("unrecognized event name")
	ErrInvalidVisitorID = errors.New("visitor id too short")
	ErrRateLimited      = errors.New("rate limited")
)

const (
	minVIDLen            = 12
	topLimit             = 20
	recentMaxLimit       = 500
	exportMaxRows        = 5000
	defaultRetentionDays = 90
)

var botMarkers = []string{"bot", "crawler", "spider", "headless"}

// --- Interface ---

type AnalyticsService interface {
	// Track validates and stores one event. stored=false with a nil error
	// means the hit was silently dropped (bot traffic).
	Track(ctx context.Context, req TrackRequest, userAgent, remoteIP string) (stored bool, err error)
	Summary(ctx context.Context, window string) (SummaryResponse, error)
	Recent(ctx context.Context, window string, offset, limit int) ([]RecentEvent, error)
	ExportCSV(ctx context.Context, w io.Writer, window string) error
	ExportXLSX(ctx context.Context, window string) ([]byte, error)
	Cleanup(ctx context.Context, confirmed bool) (deleted int64, err error)
}

// EventSink receives each stored event for live fan-out. Implemented by the
// websocket hub; fan-out failures never affect ingestion.
type EventSink interface {
	Publish(ev model.Event)
}

type analyticsService struct {
	events repository.EventRepository
	sink   EventSink
	log    zerolog.Logger

	ipHashSalt      string
	rateLimitPerMin int
	uaMaxLen        int
	pathMaxLen      int
	refMaxLen       int
	vidMaxLen       int
	metaMaxLen      int
	retention       time.Duration
}

type AnalyticsConfig struct {
	IPHashSalt      string
	RateLimitPerMin int
	UAMaxLen        int
	PathMaxLen      int
	RefMaxLen       int
	VIDMaxLen       int
	MetaMaxLen      int
	RetentionDays   int
}

func NewAnalyticsService(events repository.EventRepository, sink EventSink, cfg AnalyticsConfig) AnalyticsService {
	days := cfg.RetentionDays
	if days <= 0 {
		days = defaultRetentionDays
	}
	return &analyticsService{
		events:          events,
		sink:            sink,
		log:             logger.WithComponent("analytics"),
		ipHashSalt:      cfg.IPHashSalt,
		rateLimitPerMin: cfg.RateLimitPerMin,
		uaMaxLen:        cfg.UAMaxLen,
		pathMaxLen:      cfg.PathMaxLen,
		refMaxLen:       cfg.RefMaxLen,
		vidMaxLen:       cfg.VIDMaxLen,
		metaMaxLen:      cfg.MetaMaxLen,
		retention:       time.Duration(days) * 24 * time.Hour,
	}
}

// --- Helpers ---

// ClampString truncates s to at most max bytes without splitting a rune.
func ClampString(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// IsBotUserAgent reports whether the user agent carries an obvious bot
// marker. The filter is deliberately lightweight; it only needs to keep the
// noisy crawlers out of the counts.
func IsBotUserAgent(ua string) bool {
	lower := strings.ToLower(ua)
	if lower == "" {
		return false
	}
	for _, m := range botMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// HashIP returns the salted SHA-256 hex digest stored instead of the raw
// address. Empty input hashes to empty so absent IPs skip rate limiting.
func HashIP(salt, ip string) string {
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(salt + "|" + ip))
	return hex.EncodeToString(sum[:])
}

func validEventName(name string) bool {
	return name == model.EventPageView || name == model.EventPDFDownload
}

// WindowSince maps a reporting window selector to its start time. Unknown
// selectors fall back to the trailing 24 hours.
func WindowSince(window string, now time.Time) time.Time {
	switch window {
	case "7d":
		return now.Add(-7 * 24 * time.Hour)
	case "30d":
		return now.Add(-30 * 24 * time.Hour)
	default:
		return now.Add(-24 * time.Hour)
	}
}

// NormalizeWindow echoes the selector the since-time was computed from.
func NormalizeWindow(window string) string {
	switch window {
	case "7d", "30d":
		return window
	default:
		return "24h"
	}
}

// --- Implementation ---

func (s *analyticsService) Track(ctx context.Context, req TrackRequest, userAgent, remoteIP string) (bool, error) {
	if !validEventName(req.Event) {
		return false, ErrInvalidEvent
	}

	vid := ClampString(req.VID, s.vidMaxLen)
	if len(vid) < minVIDLen {
		return false, ErrInvalidVisitorID
	}

	ua := ClampString(userAgent, s.uaMaxLen)
	if IsBotUserAgent(ua) {
		return false, nil
	}

	ipHash := HashIP(s.ipHashSalt, remoteIP)
	if ipHash != "" && s.rateLimitPerMin > 0 {
		count, err := s.events.CountByIPHashSince(ctx, ipHash, time.Now().Add(-time.Minute))
		if err != nil {
			return false, fmt.Errorf("rate limit check: %w", err)
		}
		if count >= int64(s.rateLimitPerMin) {
			return false, ErrRateLimited
		}
	}

	metaJSON := ""
	if len(req.Meta) > 0 && string(req.Meta) != "null" {
		metaJSON = ClampString(string(req.Meta), s.metaMaxLen)
	}

	ev := model.Event{
		VID:      vid,
		Event:    req.Event,
		Path:     ClampString(req.Path, s.pathMaxLen),
		Referrer: ClampString(req.Referrer, s.refMaxLen),
		UA:       ua,
		IPHash:   ipHash,
		MetaJSON: metaJSON,
	}
	if err := s.events.Create(ctx, &ev); err != nil {
		return false, fmt.Errorf("failed to store event: %w", err)
	}

	if s.sink != nil {
		s.sink.Publish(ev)
	}
	return true, nil
}

func (s *analyticsService) Summary(ctx context.Context, window string) (SummaryResponse, error) {
	now := time.Now()
	since := WindowSince(window, now)

	total, err := s.events.CountSince(ctx, since)
	if err != nil {
		return SummaryResponse{}, fmt.Errorf("total events: %w", err)
	}
	pageViews, err := s.events.CountEventSince(ctx, model.EventPageView, since)
	if err != nil {
		return SummaryResponse{}, fmt.Errorf("page views: %w", err)
	}
	uniques, err := s.events.CountUniqueVisitorsSince(ctx, since)
	if err != nil {
		return SummaryResponse{}, fmt.Errorf("unique visitors: %w", err)
	}
	topPages, err := s.events.TopPaths(ctx, since, topLimit)
	if err != nil {
		return SummaryResponse{}, err
	}
	topReferrers, err := s.events.TopReferrers(ctx, since, topLimit)
	if err != nil {
		return SummaryResponse{}, err
	}

	return SummaryResponse{
		Window:         NormalizeWindow(window),
		TotalEvents:    total,
		PageViews:      pageViews,
		UniqueVisitors: uniques,
		TopPages:       topPages,
		TopReferrers:   topReferrers,
	}, nil
}

func (s *analyticsService) Recent(ctx context.Context, window string, offset, limit int) ([]RecentEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > recentMaxLimit {
		limit = recentMaxLimit
	}
	rows, err := s.events.ListSince(ctx, WindowSince(window, time.Now()), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent events: %w", err)
	}
	out := make([]RecentEvent, 0, len(rows))
	for _, ev := range rows {
		out = append(out, RecentEvent{
			TS:       ev.TS.Format(time.RFC3339),
			Event:    ev.Event,
			Path:     ev.Path,
			Referrer: ev.Referrer,
			VID:      ev.VID,
		})
	}
	return out, nil
}

func (s *analyticsService) ExportCSV(ctx context.Context, w io.Writer, window string) error {
	rows, err := s.events.ListSince(ctx, WindowSince(window, time.Now()), 0, exportMaxRows)
	if err != nil {
		return fmt.Errorf("failed to fetch events for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ts", "event", "path", "referrer", "vid"}); err != nil {
		return err
	}
	for _, ev := range rows {
		if err := cw.Write([]string{ev.TS.Format(time.RFC3339), ev.Event, ev.Path, ev.Referrer, ev.VID}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *analyticsService) ExportXLSX(ctx context.Context, window string) ([]byte, error) {
	rows, err := s.events.ListSince(ctx, WindowSince(window, time.Now()), 0, exportMaxRows)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events for export: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.log.Warn().Err(cerr).Msg("closing xlsx builder")
		}
	}()

	sheet := "Events"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	header := []interface{}{"ts", "event", "path", "referrer", "vid"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, ev := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{ev.TS.Format(time.RFC3339), ev.Event, ev.Path, ev.Referrer, ev.VID}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to build xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *analyticsService) Cleanup(ctx context.Context, confirmed bool) (int64, error) {
	if !confirmed {
		return 0, nil
	}
	deleted, err := s.events.DeleteOlderThan(ctx, time.Now().Add(-s.retention))
	if err != nil {
		return 0, fmt.Errorf("failed to purge old events: %w", err)
	}
	s.log.Info().Int64("deleted", deleted).Msg("analytics retention cleanup")
	return deleted, nil
}
