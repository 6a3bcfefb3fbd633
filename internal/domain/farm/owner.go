package farm

import (
	"strings"
	"time"
)

const ExperiencePerLevel = 100

type Owner struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Experience  int64     `json:"experience"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewOwner(id, displayName string, now time.Time) Owner {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = id
	}
	return Owner{
		ID:          id,
		DisplayName: name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (o Owner) Level() int64 {
	if o.Experience < 0 {
		return 1
	}
	return o.Experience/ExperiencePerLevel + 1
}

// GainExperience never lowers experience.
func (o *Owner) GainExperience(points int64, now time.Time) {
	if points <= 0 {
		return
	}
	o.Experience += points
	o.UpdatedAt = now
}

func (o *Owner) Rename(displayName string, now time.Time) bool {
	name := strings.TrimSpace(displayName)
	if name == "" || name == o.DisplayName {
		return false
	}
	o.DisplayName = name
	o.UpdatedAt = now
	return true
}
