package entities

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"focuslink/domain/config"
	"focuslink/domain/core/valueobjects"
	"focuslink/domain/events"
	pkgerrors "focuslink/pkg/errors"
)

// Goal change kinds carried by GoalsChanged events
const (
	GoalAdded     = "added"
	GoalUpdated   = "updated"
	GoalRemoved   = "removed"
	GoalSpotlight = "spotlight"
)

// Goal is a focus area a user declared
type Goal struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	IsActive     bool      `json:"isActive"`
	AlreadyDoing bool      `json:"alreadyDoing"`
	IsSpotlight  bool      `json:"isSpotlight,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GoalUpdate holds the optional fields of a goal edit
type GoalUpdate struct {
	Text         *string
	IsActive     *bool
	AlreadyDoing *bool
}

// ProfileUpdate holds the optional fields of a profile edit
type ProfileUpdate struct {
	Name          *string
	Bio           *string
	PhotoURL      *string
	MapEmoji      *string
	IsActive      *bool
	ShareLocation *bool
}

// Profile is the aggregate root for a user and their goals
type Profile struct {
	UID           string                    `json:"uid"`
	Name          string                    `json:"name"`
	Bio           string                    `json:"bio,omitempty"`
	PhotoURL      string                    `json:"photoURL,omitempty"`
	MapEmoji      string                    `json:"mapEmoji,omitempty"`
	IsActive      bool                      `json:"isActive"`
	ShareLocation *bool                     `json:"shareLocation,omitempty"`
	Coordinates   *valueobjects.Coordinates `json:"coordinates,omitempty"`
	Goals         []Goal                    `json:"goals"`
	CreatedAt     time.Time                 `json:"createdAt"`
	UpdatedAt     time.Time                 `json:"updatedAt"`
	Version       int                       `json:"version"`

	events []events.DomainEvent
}

// NewProfile creates an active profile with no goals
func NewProfile(uid, name string, cfg *config.DomainConfig) (*Profile, error) {
	if uid == "" {
		return nil, pkgerrors.NewValidationError("uid cannot be empty")
	}
	name = strings.TrimSpace(name)
	if err := validateLength("name", name, cfg.MaxNameLength); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Profile{
		UID:       uid,
		Name:      name,
		IsActive:  true,
		Goals:     []Goal{},
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}, nil
}

// Update applies the non-nil fields of u
func (p *Profile) Update(u ProfileUpdate, cfg *config.DomainConfig) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if err := validateLength("name", name, cfg.MaxNameLength); err != nil {
			return err
		}
		p.Name = name
	}
	if u.Bio != nil {
		bio := strings.TrimSpace(*u.Bio)
		if err := validateLength("bio", bio, cfg.MaxBioLength); err != nil {
			return err
		}
		p.Bio = bio
	}
	if u.PhotoURL != nil {
		p.PhotoURL = strings.TrimSpace(*u.PhotoURL)
	}
	if u.MapEmoji != nil {
		p.MapEmoji = *u.MapEmoji
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
	if u.ShareLocation != nil {
		share := *u.ShareLocation
		p.ShareLocation = &share
	}

	p.touch()
	p.addEvent(events.NewProfileUpdated(p.UID, p.UpdatedAt))
	return nil
}

// SharesLocation reports whether the user appears on the map. An unset
// preference means sharing.
func (p *Profile) SharesLocation() bool {
	return p.ShareLocation == nil || *p.ShareLocation
}

// SetLocation records the user's last known position
func (p *Profile) SetLocation(c valueobjects.Coordinates) {
	p.Coordinates = &c
	p.touch()
}

// AddGoal appends a new active goal
func (p *Profile) AddGoal(text string, alreadyDoing bool, cfg *config.DomainConfig) (Goal, error) {
	if cfg.MaxGoalsPerProfile > 0 && len(p.Goals) >= cfg.MaxGoalsPerProfile {
		return Goal{}, pkgerrors.NewValidationError(
			fmt.Sprintf("a profile can hold at most %d goals", cfg.MaxGoalsPerProfile),
		).WithCode(pkgerrors.CodeGoalLimitReached)
	}
	text, err := normalizeGoalText(text, cfg)
	if err != nil {
		return Goal{}, err
	}

	goal := Goal{
		ID:           valueobjects.NewID(),
		Text:         text,
		IsActive:     true,
		AlreadyDoing: alreadyDoing,
		CreatedAt:    time.Now().UTC(),
	}
	p.Goals = append(p.Goals, goal)

	p.touch()
	p.goalsChanged(goal.ID, GoalAdded)
	return goal, nil
}

// UpdateGoal applies the non-nil fields of u to goal id. Deactivating the
// spotlight goal also clears the spotlight.
func (p *Profile) UpdateGoal(id string, u GoalUpdate, cfg *config.DomainConfig) (Goal, error) {
	i := p.goalIndex(id)
	if i < 0 {
		return Goal{}, pkgerrors.NewNotFoundError("goal")
	}

	goal := p.Goals[i]
	if u.Text != nil {
		text, err := normalizeGoalText(*u.Text, cfg)
		if err != nil {
			return Goal{}, err
		}
		goal.Text = text
	}
	if u.IsActive != nil {
		goal.IsActive = *u.IsActive
		if !goal.IsActive {
			goal.IsSpotlight = false
		}
	}
	if u.AlreadyDoing != nil {
		goal.AlreadyDoing = *u.AlreadyDoing
	}
	p.Goals[i] = goal

	p.touch()
	p.goalsChanged(goal.ID, GoalUpdated)
	return goal, nil
}

// RemoveGoal deletes goal id
func (p *Profile) RemoveGoal(id string) error {
	i := p.goalIndex(id)
	if i < 0 {
		return pkgerrors.NewNotFoundError("goal")
	}
	p.Goals = append(p.Goals[:i], p.Goals[i+1:]...)

	p.touch()
	p.goalsChanged(id, GoalRemoved)
	return nil
}

// SetSpotlight marks goal id as the spotlight and clears the flag on every
// other goal. An empty id clears the spotlight.
func (p *Profile) SetSpotlight(id string) error {
	if id != "" {
		i := p.goalIndex(id)
		if i < 0 {
			return pkgerrors.NewNotFoundError("goal")
		}
		if !p.Goals[i].IsActive {
			return pkgerrors.NewValidationError("only an active goal can be the spotlight")
		}
	}

	for i := range p.Goals {
		p.Goals[i].IsSpotlight = p.Goals[i].ID == id
	}

	p.touch()
	p.goalsChanged(id, GoalSpotlight)
	return nil
}

// Goal returns goal id
func (p *Profile) Goal(id string) (Goal, bool) {
	if i := p.goalIndex(id); i >= 0 {
		return p.Goals[i], true
	}
	return Goal{}, false
}

// ActiveGoals returns the goals visible to matching
func (p *Profile) ActiveGoals() []Goal {
	active := make([]Goal, 0, len(p.Goals))
	for _, g := range p.Goals {
		if g.IsActive {
			active = append(active, g)
		}
	}
	return active
}

// ActiveGoalTexts returns the texts of active goals, in order
func (p *Profile) ActiveGoalTexts() []string {
	texts := make([]string, 0, len(p.Goals))
	for _, g := range p.Goals {
		if g.IsActive {
			texts = append(texts, g.Text)
		}
	}
	return texts
}

// SpotlightGoal returns the goal shown for this user on the map: the
// spotlight goal, else the first active goal already being done, else the
// first active goal being planned.
func (p *Profile) SpotlightGoal() (Goal, bool) {
	for _, g := range p.Goals {
		if g.IsSpotlight {
			return g, true
		}
	}
	for _, g := range p.Goals {
		if g.IsActive && g.AlreadyDoing {
			return g, true
		}
	}
	for _, g := range p.Goals {
		if g.IsActive && !g.AlreadyDoing {
			return g, true
		}
	}
	return Goal{}, false
}

// GetUncommittedEvents returns all uncommitted domain events
func (p *Profile) GetUncommittedEvents() []events.DomainEvent {
	return p.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (p *Profile) MarkEventsAsCommitted() {
	p.events = nil
}

func (p *Profile) goalIndex(id string) int {
	for i, g := range p.Goals {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func (p *Profile) goalsChanged(goalID, change string) {
	p.addEvent(events.NewGoalsChanged(p.UID, goalID, change, p.ActiveGoalTexts(), p.UpdatedAt))
}

func (p *Profile) addEvent(event events.DomainEvent) {
	p.events = append(p.events, event)
}

func (p *Profile) touch() {
	p.UpdatedAt = time.Now().UTC()
}

func normalizeGoalText(text string, cfg *config.DomainConfig) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", pkgerrors.NewValidationError("goal text cannot be empty")
	}
	if err := validateLength("goal text", text, cfg.MaxGoalLength); err != nil {
		return "", err
	}
	return text, nil
}

func validateLength(field, value string, max int) error {
	if max > 0 && utf8.RuneCountInString(value) > max {
		return pkgerrors.NewValidationError(fmt.Sprintf("%s exceeds %d characters", field, max))
	}
	return nil
}
