// Package member holds the club team: leaders (shown with bio & links) and members.
package member

import (
	"github.com/volatiletech/null/v8"

	"github.com/erise-club/website/core"
	"github.com/erise-club/website/core/resource"
)

// Types offered by the admin form. Not enforced server-side.
const (
	TypeLeader = "leader"
	TypeMember = "member"
)

var (
	Schema = resource.Schema{
		Name:      "team",
		Table:     "team",
		Columns:   []string{"name", "role", "image", "bio", "linkedin", "mail", "github", "type"},
		Ordering:  []core.DBOrdering{{Field: "id", Ascending: true}},
		Orderable: []string{"id", "name", "role", "type"},
	}
)

type Member struct {
	ID       int64       `json:"id" db:"id"`
	Name     string      `json:"name" db:"name"`
	Role     string      `json:"role" db:"role"`
	Image    string      `json:"image" db:"image"`
	Bio      null.String `json:"bio" db:"bio"`
	LinkedIn null.String `json:"linkedin" db:"linkedin"`
	Mail     null.String `json:"mail" db:"mail"`
	GitHub   null.String `json:"github" db:"github"`
	Type     string      `json:"type" db:"type"`
}

func (m Member) IsLeader() bool { return m.Type == TypeLeader }

// NewMember contains information needed to add someone to the team.
type NewMember struct {
	Name     *string     `json:"name" validate:"required"`
	Role     *string     `json:"role" validate:"required"`
	Image    *string     `json:"image" validate:"required"`
	Bio      null.String `json:"bio"`
	LinkedIn null.String `json:"linkedin"`
	Mail     null.String `json:"mail"`
	GitHub   null.String `json:"github"`
	Type     *string     `json:"type" validate:"required"`
}

func (nm NewMember) Values() map[string]interface{} {
	return map[string]interface{}{
		"name":     resource.Str(nm.Name),
		"role":     resource.Str(nm.Role),
		"image":    resource.Str(nm.Image),
		"bio":      nm.Bio,
		"linkedin": nm.LinkedIn,
		"mail":     nm.Mail,
		"github":   nm.GitHub,
		"type":     resource.Str(nm.Type),
	}
}

type Service = resource.Service[Member, NewMember]

func NewService(repo resource.Repository[Member]) *Service {
	return resource.NewService[Member, NewMember](Schema, repo)
}
