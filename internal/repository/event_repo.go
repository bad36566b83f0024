package repository

import (
	"context"
	"fmt"
	"time"

	"invoicegen/internal/model"

	"gorm.io/gorm"
)

// PathCount is one row of the top-pages ranking.
type PathCount struct {
	Path  string `json:"path"`
	Count int64  `json:"count"`
}

// ReferrerCount is one row of the top-referrers ranking.
type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Count    int64  `json:"count"`
}

type EventRepository interface {
	Create(ctx context.Context, ev *model.Event) error
	CountByIPHashSince(ctx context.Context, ipHash string, since time.Time) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountEventSince(ctx context.Context, event string, since time.Time) (int64, error)
	CountUniqueVisitorsSince(ctx context.Context, since time.Time) (int64, error)
	TopPaths(ctx context.Context, since time.Time, limit int) ([]PathCount, error)
	TopReferrers(ctx context.Context, since time.Time, limit int) ([]ReferrerCount, error)
	ListSince(ctx context.Context, since time.Time, offset, limit int) ([]model.Event, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, ev *model.Event) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *eventRepository) CountByIPHashSince(ctx context.Context, ipHash string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Event{}).
		Where("ip_hash = ? AND ts > ?", ipHash, since).
		Count(&count).Error
	return count, err
}

func (r *eventRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Event{}).
		Where("ts > ?", since).
		Count(&count).Error
	return count, err
}

func (r *eventRepository) CountEventSince(ctx context.Context, event string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Event{}).
		Where("event = ? AND ts > ?", event, since).
		Count(&count).Error
	return count, err
}

func (r *eventRepository) CountUniqueVisitorsSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Event{}).
		Where("ts > ?", since).
		Distinct("vid").
		Count(&count).Error
	return count, err
}

func (r *eventRepository) TopPaths(ctx context.Context, since time.Time, limit int) ([]PathCount, error) {
	var rows []PathCount
	err := r.db.WithContext(ctx).Model(&model.Event{}).
		Select("path, COUNT(*) as count").
		Where("event = ? AND ts > ?", model.EventPageView, since).
		Group("path").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top paths: %w", err)
	}
	return rows, nil
}

func (r *eventRepository) TopReferrers(ctx context.Context, since time.Time, limit int) ([]ReferrerCount, error) {
	var rows []ReferrerCount
	err := r.db.WithContext(ctx).Model(&model.Event{}).
		Select("referrer, COUNT(*) as count").
		Where("event = ? AND ts > ?", model.EventPageView, since).
		Group("referrer").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top referrers: %w", err)
	}
	return rows, nil
}

func (r *eventRepository) ListSince(ctx context.Context, since time.Time, offset, limit int) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("ts > ?", since).
		Order("ts desc").
		Offset(offset).
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *eventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("ts < ?", cutoff).Delete(&model.Event{})
	return res.RowsAffected, res.Error
}
