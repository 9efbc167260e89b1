package training

import (
	"math"
	"strings"
	"time"
)

// ActivityType is the closed set of external activities the Load Estimator knows about.
type ActivityType string

const (
	ActivityJiuJitsu      ActivityType = "jiu_jitsu"
	ActivityWrestling     ActivityType = "wrestling"
	ActivityBoxing        ActivityType = "boxing"
	ActivityMuayThai      ActivityType = "muay_thai"
	ActivityRugby         ActivityType = "rugby"
	ActivityFootball      ActivityType = "football"
	ActivityCrossfit      ActivityType = "crossfit"
	ActivityBasketball    ActivityType = "basketball"
	ActivitySoccer        ActivityType = "soccer"
	ActivityHockey        ActivityType = "hockey"
	ActivityTennis        ActivityType = "tennis"
	ActivityVolleyball    ActivityType = "volleyball"
	ActivityRunning       ActivityType = "running"
	ActivityClimbing      ActivityType = "climbing"
	ActivityRowing        ActivityType = "rowing"
	ActivityCycling       ActivityType = "cycling"
	ActivitySwimming      ActivityType = "swimming"
	ActivityHiking        ActivityType = "hiking"
	ActivityDance         ActivityType = "dance"
	ActivityPilates       ActivityType = "pilates"
	ActivityYoga          ActivityType = "yoga"
	ActivityWalking       ActivityType = "walking"
	ActivityGolf          ActivityType = "golf"
	ActivityStretching    ActivityType = "stretching"
	ActivityOtherSport    ActivityType = "other_sport"
	ActivityOtherActivity ActivityType = "other_activity"
)

const defaultBaseLoad = 5

// Contact and explosive sports score higher.
//
//nolint:gochecknoglobals,mnd // immutable reference data.
var baseLoads = map[ActivityType]int{
	ActivityJiuJitsu:      8,
	ActivityWrestling:     8,
	ActivityBoxing:        8,
	ActivityMuayThai:      8,
	ActivityRugby:         8,
	ActivityFootball:      8,
	ActivityCrossfit:      8,
	ActivityBasketball:    7,
	ActivitySoccer:        7,
	ActivityHockey:        7,
	ActivityTennis:        6,
	ActivityVolleyball:    6,
	ActivityRunning:       6,
	ActivityClimbing:      6,
	ActivityRowing:        6,
	ActivityCycling:       5,
	ActivitySwimming:      5,
	ActivityHiking:        4,
	ActivityDance:         4,
	ActivityPilates:       3,
	ActivityYoga:          2,
	ActivityWalking:       2,
	ActivityGolf:          2,
	ActivityStretching:    1,
	ActivityOtherSport:    defaultBaseLoad,
	ActivityOtherActivity: defaultBaseLoad,
}

// Intensity is the self-reported effort of an external activity.
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

func (i Intensity) multiplier() (float64, bool) {
	switch i {
	case IntensityLow:
		return 0.7, true //nolint:mnd // reference multiplier.
	case IntensityMedium:
		return 1.0, true
	case IntensityHigh:
		return 1.3, true //nolint:mnd // reference multiplier.
	}
	return 0, false
}

const (
	minLoad           = 1
	maxLoad           = 10
	highLoadThreshold = 7
	maxDurationFactor = 2.0
)

// LoadScore converts an activity into a training load between 1 and 10.
//
// The base load of the activity type is multiplied by the intensity multiplier and by min(duration/60, 2), truncated,
// and clamped. Unknown activity types use a base of 5. Negative durations count as zero and unknown intensities as
// medium; use NewExternalActivity to reject them instead.
func LoadScore(activityType ActivityType, durationMinutes int, intensity Intensity) int {
	base, ok := baseLoads[activityType]
	if !ok {
		base = defaultBaseLoad
	}
	mult, ok := intensity.multiplier()
	if !ok {
		mult = 1.0
	}
	durationFactor := math.Min(float64(max(durationMinutes, 0))/60, maxDurationFactor) //nolint:mnd // minutes per hour.
	// The epsilon keeps products such as 5 * 1.3 * 1.2 from truncating to one below their exact value.
	score := int(math.Floor(float64(base)*mult*durationFactor + 1e-9)) //nolint:mnd // float tolerance.
	return clampLoad(score)
}

func clampLoad(score int) int {
	return min(max(score, minLoad), maxLoad)
}

// ExternalActivity is a physical activity from the Calendar Service with its derived load.
type ExternalActivity struct {
	SourceID        string       `json:"source_id"`
	Date            time.Time    `json:"date"`
	Type            ActivityType `json:"type"`
	Name            string       `json:"name"`
	Intensity       Intensity    `json:"intensity"`
	DurationMinutes int          `json:"duration_minutes"`
	LoadScore       int          `json:"load_score"`
	Recurring       bool         `json:"recurring"`
	DayOfWeek       time.Weekday `json:"day_of_week"`
}

// NewExternalActivity validates the inputs and derives the load score. Unknown activity types are stored as
// other_activity.
func NewExternalActivity(
	sourceID string,
	date time.Time,
	activityType ActivityType,
	name string,
	intensity Intensity,
	durationMinutes int,
	recurring bool,
) (ExternalActivity, error) {
	if durationMinutes < 0 {
		return ExternalActivity{}, validationError("negative duration %d for %q", durationMinutes, name)
	}
	if _, ok := intensity.multiplier(); !ok {
		return ExternalActivity{}, validationError("unknown intensity %q for %q", intensity, name)
	}
	if _, ok := baseLoads[activityType]; !ok {
		activityType = ActivityOtherActivity
	}
	d := dateOf(date)
	return ExternalActivity{
		SourceID:        sourceID,
		Date:            d,
		Type:            activityType,
		Name:            name,
		Intensity:       intensity,
		DurationMinutes: durationMinutes,
		LoadScore:       LoadScore(activityType, durationMinutes, intensity),
		Recurring:       recurring,
		DayOfWeek:       d.Weekday(),
	}, nil
}

func (a ExternalActivity) highLoad() bool {
	return a.LoadScore >= highLoadThreshold
}

// activityVocabulary maps calendar event names to activity types, first match wins.
//
//nolint:gochecknoglobals // immutable reference data.
var activityVocabulary = []struct {
	activity ActivityType
	phrases  []string
}{
	{ActivityJiuJitsu, []string{"bjj", "jiu jitsu", "jiujitsu", "grappling", "no gi"}},
	{ActivityWrestling, []string{"wrestling"}},
	{ActivityMuayThai, []string{"muay thai", "kickboxing"}},
	{ActivityBoxing, []string{"boxing", "sparring"}},
	{ActivityRugby, []string{"rugby"}},
	{ActivityCrossfit, []string{"crossfit", "wod", "hiit", "bootcamp"}},
	{ActivityBasketball, []string{"basketball", "hoops"}},
	{ActivitySoccer, []string{"soccer"}},
	{ActivityFootball, []string{"football", "futsal"}},
	{ActivityHockey, []string{"hockey"}},
	{ActivityTennis, []string{"tennis", "squash", "padel", "badminton"}},
	{ActivityVolleyball, []string{"volleyball"}},
	{ActivityClimbing, []string{"climbing", "bouldering", "climb"}},
	{ActivityRowing, []string{"rowing", "erg"}},
	{ActivityCycling, []string{"cycling", "bike", "spin", "ride"}},
	{ActivitySwimming, []string{"swim", "swimming"}},
	{ActivityHiking, []string{"hike", "hiking", "trek"}},
	{ActivityDance, []string{"dance", "dancing", "salsa", "zumba"}},
	{ActivityPilates, []string{"pilates"}},
	{ActivityYoga, []string{"yoga"}},
	{ActivityRunning, []string{"run", "running", "jog", "jogging", "parkrun", "5k", "10k"}},
	{ActivityWalking, []string{"walk", "walking"}},
	{ActivityGolf, []string{"golf"}},
	{ActivityStretching, []string{"stretch", "stretching", "mobility"}},
	{ActivityOtherSport, []string{"match", "game", "league", "sport", "practice"}},
}

// ParseActivityType maps a free-text event name to an activity type, falling back to other_activity.
func ParseActivityType(name string) ActivityType {
	if t := ActivityType(strings.ToLower(strings.TrimSpace(name))); t != "" {
		if _, ok := baseLoads[t]; ok {
			return t
		}
	}
	tokens := tokenize(name)
	for _, v := range activityVocabulary {
		for _, phrase := range v.phrases {
			if containsPhrase(tokens, phrase) {
				return v.activity
			}
		}
	}
	return ActivityOtherActivity
}

// ParseIntensity picks an explicit intensity or a #low, #medium, or #high tag in notes, defaulting to medium.
func ParseIntensity(explicit string, notes string) Intensity {
	if i := Intensity(strings.ToLower(strings.TrimSpace(explicit))); i != "" {
		if _, ok := i.multiplier(); ok {
			return i
		}
	}
	lower := strings.ToLower(notes)
	for _, i := range []Intensity{IntensityHigh, IntensityMedium, IntensityLow} {
		if strings.Contains(lower, "#"+string(i)) {
			return i
		}
	}
	return IntensityMedium
}

// CalendarRecord is an activity as the Calendar Service describes it, before the core derives type and load.
type CalendarRecord struct {
	SourceID        string
	Date            time.Time
	Name            string
	Notes           string
	Intensity       string
	DurationMinutes int
	Recurring       bool
}

// ActivityFromRecord derives the activity type, intensity, and load of a calendar record.
func ActivityFromRecord(r CalendarRecord) (ExternalActivity, error) {
	return NewExternalActivity(
		r.SourceID,
		r.Date,
		ParseActivityType(r.Name),
		r.Name,
		ParseIntensity(r.Intensity, r.Notes),
		r.DurationMinutes,
		r.Recurring,
	)
}
