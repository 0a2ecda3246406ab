package ranking

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// DJInput carries the editable DJ fields. Nil pointers leave a field unchanged on update.
type DJInput struct {
	Name        *string
	Instagram   *string
	Country     *string
	Bio         *string
	PhotoURL    *string
	SocialLinks map[string]string
	Approved    *bool
}

// CreateDJ registers a DJ directly from the admin panel.
func (s *Service) CreateDJ(ctx context.Context, input DJInput, adminID string) (DJ, error) {
	if err := s.ready(opCreateDJ); err != nil {
		return DJ{}, err
	}
	if input.Name == nil || input.Country == nil {
		return DJ{}, newServiceError(opCreateDJ, reasonInvalidInput, invalidInput("name and country are required"))
	}
	id, err := s.newID(opCreateDJ)
	if err != nil {
		return DJ{}, err
	}
	now := s.now()
	dj := DJ{ID: id, CreatedBy: adminID, CreatedAt: now}
	if err := applyDJInput(&dj, input); err != nil {
		return DJ{}, newServiceError(opCreateDJ, reasonInvalidInput, err)
	}
	dj.UpdatedBy = adminID
	dj.UpdatedAt = now
	if err := s.repository.CreateDJ(ctx, &dj); err != nil {
		return DJ{}, s.fail(opCreateDJ, reasonDJSave, err, zap.String("dj_id", dj.ID))
	}
	return dj, nil
}

// UpdateDJ applies a partial edit. Published rankings keep their denormalised copies.
func (s *Service) UpdateDJ(ctx context.Context, id string, input DJInput, adminID string) (DJ, error) {
	if err := s.ready(opUpdateDJ); err != nil {
		return DJ{}, err
	}
	dj, err := s.loadDJ(ctx, opUpdateDJ, id)
	if err != nil {
		return DJ{}, err
	}
	if err := applyDJInput(&dj, input); err != nil {
		return DJ{}, newServiceError(opUpdateDJ, reasonInvalidInput, err)
	}
	dj.UpdatedBy = adminID
	dj.UpdatedAt = s.now()
	if err := s.repository.SaveDJ(ctx, &dj); err != nil {
		return DJ{}, s.fail(opUpdateDJ, reasonDJSave, err, zap.String("dj_id", dj.ID))
	}
	return dj, nil
}

// SetDJApproval approves or deactivates a DJ.
func (s *Service) SetDJApproval(ctx context.Context, id string, approved bool, adminID string) (DJ, error) {
	if err := s.ready(opSetDJApproval); err != nil {
		return DJ{}, err
	}
	dj, err := s.loadDJ(ctx, opSetDJApproval, id)
	if err != nil {
		return DJ{}, err
	}
	if dj.Approved == approved {
		return dj, nil
	}
	dj.Approved = approved
	dj.UpdatedBy = adminID
	dj.UpdatedAt = s.now()
	if err := s.repository.SaveDJ(ctx, &dj); err != nil {
		return DJ{}, s.fail(opSetDJApproval, reasonDJSave, err, zap.String("dj_id", dj.ID))
	}
	return dj, nil
}

// GetDJ returns a DJ by id.
func (s *Service) GetDJ(ctx context.Context, id string) (DJ, error) {
	if err := s.ready(opGetDJ); err != nil {
		return DJ{}, err
	}
	return s.loadDJ(ctx, opGetDJ, id)
}

// ListDJs returns DJs ordered by name.
func (s *Service) ListDJs(ctx context.Context, filter DJFilter) ([]DJ, error) {
	if err := s.ready(opListDJs); err != nil {
		return nil, err
	}
	if filter.Country != "" {
		country, err := NormalizeCountry(filter.Country)
		if err != nil {
			return nil, newServiceError(opListDJs, reasonInvalidInput, err)
		}
		filter.Country = country
	}
	djs, err := s.repository.ListDJs(ctx, filter)
	if err != nil {
		return nil, s.fail(opListDJs, reasonDJLookup, err)
	}
	return djs, nil
}

func (s *Service) loadDJ(ctx context.Context, operation, id string) (DJ, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return DJ{}, newServiceError(operation, reasonInvalidInput, invalidInput("dj id is required"))
	}
	dj, err := s.repository.GetDJ(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return DJ{}, newServiceError(operation, reasonNotFound, ErrNotFound)
	}
	if err != nil {
		return DJ{}, s.fail(operation, reasonDJLookup, err, zap.String("dj_id", id))
	}
	return dj, nil
}

func applyDJInput(dj *DJ, input DJInput) error {
	if input.Name != nil {
		name, err := normalizeRequiredName(*input.Name)
		if err != nil {
			return err
		}
		dj.Name = name
		dj.NameKey = NameKey(name)
	}
	if input.Country != nil {
		country, err := NormalizeCountry(*input.Country)
		if err != nil {
			return err
		}
		dj.Country = country
	}
	if input.Instagram != nil {
		instagram := NormalizeInstagram(*input.Instagram)
		if len(instagram) > maxInstagramLength {
			return invalidInput("instagram exceeds %d characters", maxInstagramLength)
		}
		dj.Instagram = instagram
	}
	if input.Bio != nil {
		dj.Bio = strings.TrimSpace(*input.Bio)
	}
	if input.PhotoURL != nil {
		photoURL := strings.TrimSpace(*input.PhotoURL)
		if len(photoURL) > maxURLLength {
			return invalidInput("photo url exceeds %d characters", maxURLLength)
		}
		dj.PhotoURL = photoURL
	}
	if input.SocialLinks != nil {
		links := make(map[string]string, len(input.SocialLinks))
		for platform, link := range input.SocialLinks {
			platform = strings.ToLower(strings.TrimSpace(platform))
			link = strings.TrimSpace(link)
			if platform == "" || link == "" {
				continue
			}
			if len(platform) > 32 || len(link) > maxURLLength {
				return invalidInput("social link %q is too long", platform)
			}
			links[platform] = link
		}
		dj.SocialLinks = links
	}
	if input.Approved != nil {
		dj.Approved = *input.Approved
	}
	return nil
}
