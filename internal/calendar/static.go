package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/myrjola/trainingplan/internal/training"
)

// Static is an in-memory calendar. Published workouts are kept in memory.
type Static struct {
	mu        sync.Mutex
	records   []training.CalendarRecord
	published []training.WorkoutEvent
}

// NewStatic creates a calendar holding records.
func NewStatic(records ...training.CalendarRecord) *Static {
	return &Static{
		mu:        sync.Mutex{},
		records:   slices.Clone(records),
		published: nil,
	}
}

type staticRecord struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	Name            string `json:"name"`
	Notes           string `json:"notes"`
	Intensity       string `json:"intensity"`
	DurationMinutes int    `json:"duration_minutes"`
	Recurring       bool   `json:"recurring"`
}

// LoadStatic reads a JSON array of activities such as
//
//	[{"id": "bjj-1", "date": "2025-01-07", "name": "BJJ", "intensity": "high", "duration_minutes": 90}]
func LoadStatic(r io.Reader) (*Static, error) {
	var raw []staticRecord
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	records := make([]training.CalendarRecord, len(raw))
	for i, sr := range raw {
		date, err := time.Parse(time.DateOnly, sr.Date)
		if err != nil {
			return nil, fmt.Errorf("activity %d: %w", i, err)
		}
		id := sr.ID
		if id == "" {
			id = fmt.Sprintf("static-%d", i+1)
		}
		records[i] = training.CalendarRecord{
			SourceID:        id,
			Date:            date,
			Name:            sr.Name,
			Notes:           sr.Notes,
			Intensity:       sr.Intensity,
			DurationMinutes: sr.DurationMinutes,
			Recurring:       sr.Recurring,
		}
	}
	return NewStatic(records...), nil
}

// Activities lists the records dated from from up to but excluding to.
func (s *Static) Activities(ctx context.Context, from, to time.Time) ([]training.CalendarRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []training.CalendarRecord
	for _, r := range s.records {
		if !r.Date.Before(from) && r.Date.Before(to) {
			records = append(records, r)
		}
	}
	return records, nil
}

// PublishWorkout records the workout. Publishing the same day again replaces the earlier event.
func (s *Static) PublishWorkout(ctx context.Context, w training.WorkoutEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish workout: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = slices.DeleteFunc(s.published, func(p training.WorkoutEvent) bool { return p.DayID == w.DayID })
	s.published = append(s.published, w)
	return nil
}

// Published returns the workouts published so far.
func (s *Static) Published() []training.WorkoutEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.published)
}
