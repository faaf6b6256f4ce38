package services

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"golang.org/x/text/cases"

	"github.com/tbourn/go-repair-scheduler/internal/domain"
)

// ValidationRules configures the form rules applied before an appointment is
// booked or rescheduled.
type ValidationRules struct {
	// MinClientNameRunes is the minimum length of the trimmed client name.
	MinClientNameRunes int
	// Upper bounds in runes after normalization; 0 disables a bound.
	MaxClientNameRunes  int
	MaxVehicleRunes     int
	MaxDescriptionRunes int
	// RequireFuture rejects appointments that do not start after now.
	RequireFuture bool
	// Location interprets Date and Time; nil means time.Local.
	Location *time.Location
}

// DefaultValidationRules mirrors the shop's booking form.
func DefaultValidationRules() ValidationRules {
	return ValidationRules{
		MinClientNameRunes:  3,
		MaxClientNameRunes:  50,
		MaxVehicleRunes:     50,
		MaxDescriptionRunes: 200,
		RequireFuture:       true,
	}
}

// Field messages returned in ValidationError.Fields.
const (
	msgClientRequired  = "client name is required"
	msgClientTooShort  = "client name is too short"
	msgClientTooLong   = "client name is too long"
	msgVehicleRequired = "vehicle model is required"
	msgVehicleTooLong  = "vehicle model is too long"
	msgDescTooLong     = "description is too long"
	msgDateRequired    = "date is required"
	msgDateInvalid     = "date must be a calendar date (YYYY-MM-DD)"
	msgTimeRequired    = "time is required"
	msgTimeInvalid     = "time must be HH:MM (24h)"
	msgNotFuture       = "date and time must be later than now"
)

// ValidateInput normalizes in and checks it against rules at instant now.
// On success it returns the normalized input: text fields trimmed with inner
// whitespace collapsed, Date as YYYY-MM-DD, Time as HH:MM.
func ValidateInput(in domain.AppointmentInput, now time.Time, rules ValidationRules) (domain.AppointmentInput, error) {
	out := domain.AppointmentInput{
		ClientName:   normalizeText(in.ClientName),
		VehicleModel: normalizeText(in.VehicleModel),
		Description:  strings.TrimSpace(in.Description),
	}
	fields := map[string]string{}

	switch {
	case out.ClientName == "":
		fields["clientName"] = msgClientRequired
	case rules.MinClientNameRunes > 0 && utf8.RuneCountInString(out.ClientName) < rules.MinClientNameRunes:
		fields["clientName"] = msgClientTooShort
	case tooLong(out.ClientName, rules.MaxClientNameRunes):
		fields["clientName"] = msgClientTooLong
	}
	switch {
	case out.VehicleModel == "":
		fields["vehicleModel"] = msgVehicleRequired
	case tooLong(out.VehicleModel, rules.MaxVehicleRunes):
		fields["vehicleModel"] = msgVehicleTooLong
	}
	if tooLong(out.Description, rules.MaxDescriptionRunes) {
		fields["description"] = msgDescTooLong
	}

	if strings.TrimSpace(in.Date) == "" {
		fields["date"] = msgDateRequired
	} else if d, ok := NormalizeDate(in.Date); ok {
		out.Date = d
	} else {
		fields["date"] = msgDateInvalid
	}

	if strings.TrimSpace(in.Time) == "" {
		fields["time"] = msgTimeRequired
	} else if tm, ok := NormalizeTime(in.Time); ok {
		out.Time = tm
	} else {
		fields["time"] = msgTimeInvalid
	}

	if rules.RequireFuture && out.Date != "" && out.Time != "" {
		a := domain.Appointment{Date: out.Date, Time: out.Time}
		if start, ok := a.StartsAt(rules.Location); ok && !start.After(now) {
			fields["date"] = msgNotFuture
		}
	}

	if len(fields) > 0 {
		return out, &ValidationError{Fields: fields}
	}
	return out, nil
}

// NormalizeDate returns s as YYYY-MM-DD. ISO dates pass through; other
// unambiguous spellings ("2025/06/01", "June 1, 2025") are parsed leniently.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if t, err := time.Parse(domain.DateLayout, s); err == nil {
		return t.Format(domain.DateLayout), true
	}
	t, err := dateparse.ParseStrict(s)
	if err != nil {
		return "", false
	}
	return t.Format(domain.DateLayout), true
}

// NormalizeTime returns s as zero-padded HH:MM (24h).
func NormalizeTime(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !timeRE.MatchString(s) {
		return "", false
	}
	t, err := time.Parse(domain.TimeLayout, s)
	if err != nil {
		return "", false
	}
	return t.Format(domain.TimeLayout), true
}

// VehicleKey is the comparison key for vehicle models: trimmed and
// case-folded, so "Toyota Corolla " and "toyota corolla" collide.
func VehicleKey(s string) string {
	// Casers are stateful; build one per call.
	return cases.Fold().String(strings.TrimSpace(s))
}

// normalizeText trims whitespace and collapses inner runs to one space.
func normalizeText(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

var (
	// whitespaceRE collapses consecutive whitespace to a single space.
	whitespaceRE = regexp.MustCompile(`\s+`)
	// timeRE accepts H:MM and HH:MM.
	timeRE = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

func tooLong(s string, limit int) bool {
	return limit > 0 && utf8.RuneCountInString(s) > limit
}
