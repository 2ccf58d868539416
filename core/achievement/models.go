package achievement

import (
	"github.com/erise-club/website/core"
	"github.com/erise-club/website/core/resource"
)

// Icons known to the client. Not enforced server-side.
const (
	IconAward  = "Award"
	IconTrophy = "Trophy"
	IconStar   = "Star"
	IconMedal  = "Medal"
)

var (
	// Year is free text, so "year DESC" is a text ordering.
	Schema = resource.Schema{
		Name:      "achievements",
		Table:     "achievements",
		Columns:   []string{"title", "year", "category", "image", "description", "icon"},
		Ordering:  []core.DBOrdering{{Field: "year"}, {Field: "id"}},
		Orderable: []string{"id", "title", "year", "category"},
	}
)

type Achievement struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Year        string `json:"year" db:"year"`
	Category    string `json:"category" db:"category"`
	Image       string `json:"image" db:"image"`
	Description string `json:"description" db:"description"`
	Icon        string `json:"icon" db:"icon"`
}

// NewAchievement contains information needed to record a new Achievement.
type NewAchievement struct {
	Title       *string `json:"title" validate:"required"`
	Year        *string `json:"year" validate:"required"`
	Category    *string `json:"category" validate:"required"`
	Image       *string `json:"image" validate:"required"`
	Description *string `json:"description" validate:"required"`
	Icon        *string `json:"icon" validate:"required"`
}

func (na NewAchievement) Values() map[string]interface{} {
	return map[string]interface{}{
		"title":       resource.Str(na.Title),
		"year":        resource.Str(na.Year),
		"category":    resource.Str(na.Category),
		"image":       resource.Str(na.Image),
		"description": resource.Str(na.Description),
		"icon":        resource.Str(na.Icon),
	}
}

type Service = resource.Service[Achievement, NewAchievement]

func NewService(repo resource.Repository[Achievement]) *Service {
	return resource.NewService[Achievement, NewAchievement](Schema, repo)
}
