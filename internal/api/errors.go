package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"swapLedger/internal/engine"
)

var (
	errInvalidBody      = fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	errCreatorRequired  = fiber.NewError(fiber.StatusBadRequest, "creator is required")
	errProviderRequired = fiber.NewError(fiber.StatusBadRequest, "provider is required")
	errTraderRequired   = fiber.NewError(fiber.StatusBadRequest, "trader is required")
	errCallerRequired   = fiber.NewError(fiber.StatusBadRequest, "caller is required")
)

// httpError maps engine sentinel errors onto HTTP responses. Validation
// failures are 400s, missing records 404s, identity failures 403s, and
// state conflicts 409s.
func (s *Server) httpError(err error) error {
	switch {
	case errors.Is(err, engine.ErrPoolNotFound),
		errors.Is(err, engine.ErrSwapNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())

	case errors.Is(err, engine.ErrNotAuthorized),
		errors.Is(err, engine.ErrInvalidSignature),
		errors.Is(err, engine.ErrInvalidContractHash):
		return fiber.NewError(fiber.StatusForbidden, err.Error())

	case errors.Is(err, engine.ErrTimeLockActive),
		errors.Is(err, engine.ErrSwapExpired):
		return fiber.NewError(fiber.StatusConflict, err.Error())

	case errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, engine.ErrZeroAmount),
		errors.Is(err, engine.ErrSameAsset),
		errors.Is(err, engine.ErrInvalidAsset),
		errors.Is(err, engine.ErrRatioMismatch),
		errors.Is(err, engine.ErrSlippageTooHigh),
		errors.Is(err, engine.ErrMinOutputNotMet),
		errors.Is(err, engine.ErrPriceImpactTooHigh),
		errors.Is(err, engine.ErrInsufficientLiquidity),
		errors.Is(err, engine.ErrInsufficientShares),
		errors.Is(err, engine.ErrInsufficientBalance),
		errors.Is(err, engine.ErrLockPeriodTooShort):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())

	case errors.Is(err, engine.ErrKInvariantViolated):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())

	default:
		s.logger.Error("engine operation failed", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}
