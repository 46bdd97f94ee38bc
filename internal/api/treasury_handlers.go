package api

import (
	"github.com/gofiber/fiber/v3"
)

func (s *Server) handleTreasury() fiber.Handler {
	return func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"platform_fees": s.engine.PlatformFees()})
	}
}

type withdrawFeesRequest struct {
	Caller string `json:"caller"`
	Amount uint64 `json:"amount"`
}

func (s *Server) handleWithdrawFees() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req withdrawFeesRequest
		if err := c.Bind().Body(&req); err != nil {
			return errInvalidBody
		}
		if req.Caller == "" {
			return errCallerRequired
		}

		if err := s.engine.WithdrawFees(c.Context(), req.Caller, req.Amount); err != nil {
			return s.httpError(err)
		}
		return c.JSON(fiber.Map{"withdrawn": req.Amount, "remaining": s.engine.PlatformFees()})
	}
}
