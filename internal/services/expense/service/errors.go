package service

import (
	"context"
	"errors"

	apperrors "github.com/louisbranch/pennywise/internal/platform/errors"
	"github.com/louisbranch/pennywise/internal/services/expense/chatbot"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/louisbranch/pennywise/internal/services/expense/forecast"
	"github.com/louisbranch/pennywise/internal/services/expense/storage"
	"github.com/louisbranch/pennywise/internal/services/expense/storage/filter"
)

// classify converts package sentinels into typed application errors so every
// surface reports the same status for the same failure.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case apperrors.KindOf(err) != apperrors.KindUnknown:
		return err
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(apperrors.KindNotFound, "expense not found", err)
	case domain.IsValidationError(err),
		errors.Is(err, storage.ErrInvalidPageToken),
		errors.Is(err, filter.ErrInvalidFilter),
		errors.Is(err, forecast.ErrInsufficientData),
		errors.Is(err, forecast.ErrInvalidHorizon),
		errors.Is(err, chatbot.ErrEmptyPrompt):
		return apperrors.Wrap(apperrors.KindInvalidInput, err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.KindUnavailable, "request timed out", err)
	default:
		return err
	}
}
