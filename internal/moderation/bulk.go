package moderation

import (
	"context"
	"errors"

	"marketplace/internal/models"
)

// BulkFailure describes one id that could not be processed.
type BulkFailure struct {
	Index int    `json:"index"`
	ID    uint   `json:"id"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// BulkResult reports per-item outcomes of a bulk action.
type BulkResult struct {
	SucceededCount int           `json:"succeeded_count"`
	FailedCount    int           `json:"failed_count"`
	Succeeded      []uint        `json:"succeeded"`
	Failed         []BulkFailure `json:"failed"`
}

// RunBulk applies action to each id in order. A failing id never stops the
// batch; duplicates and zero ids are reported as failures without calling action.
// Once ctx is done the remaining ids are reported as failed.
func RunBulk(ctx context.Context, ids []uint, action func(ctx context.Context, id uint) error) BulkResult {
	result := BulkResult{
		Succeeded: make([]uint, 0, len(ids)),
		Failed:    make([]BulkFailure, 0),
	}
	seen := make(map[uint]struct{}, len(ids))

	for i, id := range ids {
		var err error
		switch _, dup := seen[id]; {
		case id == 0:
			err = models.NewValidationError("invalid id")
		case dup:
			err = models.NewValidationError("duplicate id")
		case ctx.Err() != nil:
			err = ctx.Err()
		default:
			seen[id] = struct{}{}
			err = action(ctx, id)
		}

		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{
				Index: i,
				ID:    id,
				Error: bulkMessage(err),
				Code:  models.ErrorCode(err),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	result.SucceededCount = len(result.Succeeded)
	result.FailedCount = len(result.Failed)
	return result
}

func bulkMessage(err error) string {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "request cancelled"
		}
		return "internal error"
	}
	switch appErr.Code {
	case models.CodeNotFound:
		return "not found"
	case models.CodeInternal:
		return "internal error"
	default:
		return appErr.Message
	}
}

func validateBulkIDs(ids []uint) error {
	if len(ids) == 0 {
		return models.NewValidationError("ids must not be empty")
	}
	if len(ids) > MaxBulkIDs {
		return models.NewValidationError("too many ids in one request")
	}
	return nil
}
