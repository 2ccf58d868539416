package event

import (
	"github.com/erise-club/website/core"
	"github.com/erise-club/website/core/resource"
)

// Statuses offered by the admin form. Not enforced server-side.
const (
	StatusUpcoming         = "Upcoming"
	StatusRegistrationOpen = "Registration Open"
	StatusCompleted        = "Completed"
)

var (
	Schema = resource.Schema{
		Name:      "events",
		Table:     "events",
		Columns:   []string{"title", "date", "time", "location", "image", "description", "status"},
		Ordering:  []core.DBOrdering{{Field: "id"}}, // newest first
		Orderable: []string{"id", "title", "date", "status"},
	}
)

// Event dates & times are free text, as typed by the admin (e.g. "March 15, 2026").
type Event struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Date        string `json:"date" db:"date"`
	Time        string `json:"time" db:"time"`
	Location    string `json:"location" db:"location"`
	Image       string `json:"image" db:"image"`
	Description string `json:"description" db:"description"`
	Status      string `json:"status" db:"status"`
}

// NewEvent contains information needed to create a new Event.
type NewEvent struct {
	Title       *string `json:"title" validate:"required"`
	Date        *string `json:"date" validate:"required"`
	Time        *string `json:"time" validate:"required"`
	Location    *string `json:"location" validate:"required"`
	Image       *string `json:"image" validate:"required"`
	Description *string `json:"description" validate:"required"`
	Status      *string `json:"status" validate:"required"`
}

func (ne NewEvent) Values() map[string]interface{} {
	return map[string]interface{}{
		"title":       resource.Str(ne.Title),
		"date":        resource.Str(ne.Date),
		"time":        resource.Str(ne.Time),
		"location":    resource.Str(ne.Location),
		"image":       resource.Str(ne.Image),
		"description": resource.Str(ne.Description),
		"status":      resource.Str(ne.Status),
	}
}

type Service = resource.Service[Event, NewEvent]

func NewService(repo resource.Repository[Event]) *Service {
	return resource.NewService[Event, NewEvent](Schema, repo)
}
