// Package calendar adapts calendar backends to the training service.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/myrjola/trainingplan/internal/errors"
	"github.com/myrjola/trainingplan/internal/training"
	"golang.org/x/oauth2/google"
	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// dayIDProperty marks the events published by PublishWorkout so that they are not read back as activities.
	dayIDProperty     = "trainingplan_day_id"
	intensityProperty = "intensity"
	durationProperty  = "duration_minutes"
	maxResultsPerPage = 250
)

// Google reads activities from and publishes workouts to a Google calendar.
type Google struct {
	events     *gcalendar.EventsService
	calendarID string
	logger     *slog.Logger
}

// NewGoogle creates a Google calendar client authenticated with the service-account credentials in credentialsJSON.
// The calendar calendarID must be shared with the service account.
func NewGoogle(ctx context.Context, credentialsJSON []byte, calendarID string, logger *slog.Logger) (*Google, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, gcalendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	return NewGoogleWithOptions(ctx, calendarID, logger, option.WithHTTPClient(config.Client(ctx)))
}

// NewGoogleWithOptions creates a Google calendar client from client options, for example a custom endpoint.
func NewGoogleWithOptions(
	ctx context.Context,
	calendarID string,
	logger *slog.Logger,
	opts ...option.ClientOption,
) (*Google, error) {
	if calendarID == "" {
		return nil, errors.New("calendar id is empty")
	}
	svc, err := gcalendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Google{
		events:     svc.Events,
		calendarID: calendarID,
		logger:     logger,
	}, nil
}

// Activities lists the events starting from from up to but excluding to. Recurring events are expanded into their
// instances. Cancelled events and published workouts are left out.
func (g *Google) Activities(ctx context.Context, from, to time.Time) ([]training.CalendarRecord, error) {
	var records []training.CalendarRecord
	call := g.events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResultsPerPage).
		Context(ctx)
	err := call.Pages(ctx, func(page *gcalendar.Events) error {
		for _, e := range page.Items {
			r, ok := g.record(ctx, e)
			if ok {
				records = append(records, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events of %s: %w", g.calendarID, err)
	}
	return records, nil
}

func (g *Google) record(ctx context.Context, e *gcalendar.Event) (training.CalendarRecord, bool) {
	if e.Status == "cancelled" || privateProperty(e, dayIDProperty) != "" {
		return training.CalendarRecord{}, false
	}
	r := training.CalendarRecord{
		SourceID:        e.Id,
		Date:            time.Time{},
		Name:            e.Summary,
		Notes:           e.Description,
		Intensity:       privateProperty(e, intensityProperty),
		DurationMinutes: 0,
		Recurring:       e.RecurringEventId != "",
	}
	start, end, allDay, err := eventSpan(e)
	if err != nil {
		g.logger.LogAttrs(ctx, slog.LevelWarn, "skipping calendar event without a valid time",
			slog.String("event_id", e.Id), errors.SlogError(err))
		return training.CalendarRecord{}, false
	}
	y, m, d := start.Date()
	r.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if !allDay {
		r.DurationMinutes = int(end.Sub(start).Minutes())
	}
	if v := privateProperty(e, durationProperty); v != "" {
		if minutes, convErr := strconv.Atoi(v); convErr == nil {
			r.DurationMinutes = minutes
		}
	}
	return r, true
}

// eventSpan returns the start and end of an event. All-day events report their dates.
func eventSpan(e *gcalendar.Event) (time.Time, time.Time, bool, error) {
	if e.Start == nil || e.End == nil {
		return time.Time{}, time.Time{}, false, errors.New("event has no start or end")
	}
	if e.Start.DateTime == "" {
		start, err := time.Parse(time.DateOnly, e.Start.Date)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("parse start date: %w", err)
		}
		return start, start, true, nil
	}
	start, err := time.Parse(time.RFC3339, e.Start.DateTime)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("parse start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, e.End.DateTime)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("parse end: %w", err)
	}
	return start, end, false, nil
}

func privateProperty(e *gcalendar.Event, key string) string {
	if e.ExtendedProperties == nil {
		return ""
	}
	return e.ExtendedProperties.Private[key]
}

// PublishWorkout inserts an all-day event for the workout. The event id is derived from the plan day so that
// publishing a day twice keeps a single event.
func (g *Google) PublishWorkout(ctx context.Context, w training.WorkoutEvent) error {
	event := &gcalendar.Event{
		Id:          eventID(w.DayID),
		Summary:     w.Title,
		Description: w.Description,
		Start:       &gcalendar.EventDateTime{Date: w.Date.Format(time.DateOnly)},
		End:         &gcalendar.EventDateTime{Date: w.Date.AddDate(0, 0, 1).Format(time.DateOnly)},
		ExtendedProperties: &gcalendar.EventExtendedProperties{
			Private: map[string]string{
				dayIDProperty:    w.DayID,
				durationProperty: strconv.Itoa(w.DurationMinutes),
			},
		},
		Transparency: "transparent",
	}
	_, err := g.events.Insert(g.calendarID, event).Context(ctx).Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
		g.logger.LogAttrs(ctx, slog.LevelDebug, "workout already published", slog.String("day_id", w.DayID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert event for day %s: %w", w.DayID, err)
	}
	return nil
}

// eventID maps a plan day id to the base32hex alphabet Google requires for event ids. Hex uuids only need their
// dashes removed.
func eventID(dayID string) string {
	return "tp" + strings.ToLower(strings.ReplaceAll(dayID, "-", ""))
}
