package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
)

// SectionService reads and writes a viewer's section visibility record.
type SectionService interface {
	// Load returns the stored visibility, or the all-closed default when
	// nothing is stored. Corrupt data yields the default together with an
	// error wrapping models.ErrCorruptPreferences.
	Load(ctx context.Context, viewerID string) (models.SectionVisibility, error)
	Save(ctx context.Context, viewerID string, v models.SectionVisibility) error
}

type sectionService struct {
	pr repository.PreferenceRepository
}

func NewSectionService(pr repository.PreferenceRepository) SectionService {
	return &sectionService{
		pr: pr,
	}
}

func (s *sectionService) Load(ctx context.Context, viewerID string) (models.SectionVisibility, error) {
	var v models.SectionVisibility

	raw, isExist, err := s.pr.Get(ctx, viewerID, models.SectionsPreferenceKey)
	if err != nil {
		return models.SectionVisibility{}, err
	}

	if !isExist {
		return v, nil
	}

	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		slog.Info(err.Error())
		return models.SectionVisibility{}, fmt.Errorf("%w: %s: %v", models.ErrCorruptPreferences, models.SectionsPreferenceKey, err)
	}

	return v, nil
}

func (s *sectionService) Save(ctx context.Context, viewerID string, v models.SectionVisibility) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error marshalling sections: %w", err)
	}

	return s.pr.Put(ctx, viewerID, models.SectionsPreferenceKey, string(data))
}
