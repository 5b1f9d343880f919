package service

import (
	"context"
	"strings"

	"skillswap/internal/engine"
	"skillswap/internal/models"
)

// SkillKind selects one of a member's skill lists.
type SkillKind string

const (
	SkillsOffered SkillKind = "offered"
	SkillsWanted  SkillKind = "wanted"
)

// ProfileService edits the logged-in member's profile.
type ProfileService struct {
	*core
}

// ProfileInput carries a partial profile update; nil fields are left alone.
type ProfileInput struct {
	Name          *string   `json:"name"`
	Location      *string   `json:"location"`
	ProfilePhoto  *string   `json:"profilePhoto"`
	IsPublic      *bool     `json:"isPublic"`
	Availability  *[]string `json:"availability"`
	SkillsOffered *[]string `json:"skillsOffered"`
	SkillsWanted  *[]string `json:"skillsWanted"`
}

// Update applies in to the session user.
func (s *ProfileService) Update(ctx context.Context, in ProfileInput) (*models.User, error) {
	return s.edit(ctx, func(u *models.User) error {
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return models.NewValidationError("Name is required")
			}
			u.Name = name
		}
		if in.Location != nil {
			u.Location = strings.TrimSpace(*in.Location)
		}
		if in.ProfilePhoto != nil {
			u.ProfilePhoto = strings.TrimSpace(*in.ProfilePhoto)
		}
		if in.IsPublic != nil {
			u.IsPublic = *in.IsPublic
		}
		if in.Availability != nil {
			u.Availability = models.NormalizeTags(*in.Availability)
		}
		if in.SkillsOffered != nil {
			u.SkillsOffered = models.NormalizeTags(*in.SkillsOffered)
		}
		if in.SkillsWanted != nil {
			u.SkillsWanted = models.NormalizeTags(*in.SkillsWanted)
		}
		return nil
	})
}

// AddSkill appends skill to the chosen list unless it is already there.
func (s *ProfileService) AddSkill(ctx context.Context, kind SkillKind, skill string) (*models.User, error) {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return nil, models.NewValidationError("Skill is required")
	}
	return s.edit(ctx, func(u *models.User) error {
		list, err := skillList(u, kind)
		if err != nil {
			return err
		}
		*list = models.NormalizeTags(append(*list, skill))
		return nil
	})
}

// RemoveSkill drops skill from the chosen list, compared case-insensitively.
func (s *ProfileService) RemoveSkill(ctx context.Context, kind SkillKind, skill string) (*models.User, error) {
	return s.edit(ctx, func(u *models.User) error {
		list, err := skillList(u, kind)
		if err != nil {
			return err
		}
		kept := make([]string, 0, len(*list))
		for _, existing := range *list {
			if !strings.EqualFold(existing, strings.TrimSpace(skill)) {
				kept = append(kept, existing)
			}
		}
		*list = kept
		return nil
	})
}

func (s *ProfileService) edit(ctx context.Context, fn func(*models.User) error) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, err := s.activeSession(s.store.Snapshot())
	if err != nil {
		return nil, err
	}
	updated := me.Clone()
	if err := fn(&updated); err != nil {
		return nil, err
	}
	if _, err := s.dispatch(ctx, engine.UpdateUser{User: updated}, models.NewNotFoundError("User", me.ID)); err != nil {
		return nil, err
	}
	return &updated, nil
}

func skillList(u *models.User, kind SkillKind) (*[]string, error) {
	switch kind {
	case SkillsOffered:
		return &u.SkillsOffered, nil
	case SkillsWanted:
		return &u.SkillsWanted, nil
	default:
		return nil, models.NewValidationError("Unknown skill list: " + string(kind))
	}
}
