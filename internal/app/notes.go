package service

import (
	"context"
	"fmt"

	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/pkg/logger"
)

// CreateNote validates and stores a note written by createdBy (0 when the
// caller is anonymous). A memberId must name a live member.
func (s *Service) CreateNote(ctx context.Context, in model.CreateNoteInput, createdBy int64) (model.Note, error) {
	n, err := in.Note(createdBy)
	if err != nil {
		return model.Note{}, err
	}
	if n.MemberID != nil {
		if _, err := s.store.Get(ctx, *n.MemberID); err != nil {
			return model.Note{}, fmt.Errorf("note member %d: %w", *n.MemberID, err)
		}
	}
	created, err := s.store.CreateNote(ctx, n)
	if err != nil {
		return model.Note{}, err
	}
	s.logger.Info(ctx, "note created",
		logger.Int64("id", created.ID),
		logger.String("type", string(created.NoteType)),
		logger.Int64("created_by", createdBy),
	)
	return created, nil
}

// Notes lists notes matching f, newest first.
func (s *Service) Notes(ctx context.Context, f model.NoteFilter) ([]model.Note, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.store.Notes(ctx, f)
}

func (s *Service) Settings(ctx context.Context) ([]model.Setting, error) {
	return s.store.Settings(ctx)
}

// UpdateSetting stores value under key, creating the setting if needed.
func (s *Service) UpdateSetting(ctx context.Context, key, value string) (model.Setting, error) {
	if err := model.ValidateSetting(key, value); err != nil {
		return model.Setting{}, err
	}
	st, err := s.store.PutSetting(ctx, key, value)
	if err != nil {
		return model.Setting{}, err
	}
	s.logger.Info(ctx, "setting updated", logger.String("key", key))
	return st, nil
}
