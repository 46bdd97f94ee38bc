package api

import (
	"encoding/hex"

	"github.com/gofiber/fiber/v3"

	"swapLedger/internal/engine"
)

type quoteRequest struct {
	PoolID   uint64 `json:"pool_id"`
	AssetIn  string `json:"asset_in"`
	AmountIn uint64 `json:"amount_in"`
}

func (s *Server) handleQuote() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req quoteRequest
		if err := c.Bind().Body(&req); err != nil {
			return errInvalidBody
		}

		quote, err := s.engine.Quote(req.PoolID, req.AssetIn, req.AmountIn)
		if err != nil {
			return s.httpError(err)
		}
		return c.JSON(quote)
	}
}

type swapRequest struct {
	Trader       string `json:"trader"`
	PoolID       uint64 `json:"pool_id"`
	AssetIn      string `json:"asset_in"`
	AmountIn     uint64 `json:"amount_in"`
	MinAmountOut uint64 `json:"min_amount_out"`
	Deadline     int64  `json:"deadline"`
}

// handleSwap executes a swap. A request without a deadline uses the
// legacy path that never expires.
func (s *Server) handleSwap() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req swapRequest
		if err := c.Bind().Body(&req); err != nil {
			return errInvalidBody
		}
		if req.Trader == "" {
			return errTraderRequired
		}

		if req.Deadline == 0 {
			res, err := s.engine.Swap(c.Context(), req.PoolID, req.Trader, req.AssetIn, req.AmountIn, req.MinAmountOut)
			if err != nil {
				return s.httpError(err)
			}
			return c.JSON(res)
		}

		res, err := s.engine.ExecuteSwap(c.Context(), req.PoolID, req.Trader, req.AssetIn, req.AmountIn, req.MinAmountOut, req.Deadline)
		if err != nil {
			return s.httpError(err)
		}
		return c.JSON(res)
	}
}

type signedSwapRequest struct {
	swapRequest
	Signature string `json:"signature"` // hex, 64-byte R||S
	PubKey    string `json:"pub_key"`   // hex, uncompressed secp256k1 point
}

func (s *Server) handleSignedSwap() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req signedSwapRequest
		if err := c.Bind().Body(&req); err != nil {
			return errInvalidBody
		}
		if req.Trader == "" {
			return errTraderRequired
		}
		sig, err := hex.DecodeString(req.Signature)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid signature encoding")
		}
		pubKey, err := hex.DecodeString(req.PubKey)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid pub_key encoding")
		}

		intent := engine.SwapIntent{
			Trader:       req.Trader,
			PoolID:       req.PoolID,
			AssetIn:      req.AssetIn,
			AmountIn:     req.AmountIn,
			MinAmountOut: req.MinAmountOut,
			Deadline:     req.Deadline,
		}
		res, err := s.engine.ExecuteSignedSwap(c.Context(), intent, sig, pubKey)
		if err != nil {
			return s.httpError(err)
		}
		return c.JSON(res)
	}
}

func (s *Server) handleApprovedSwap() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req swapRequest
		if err := c.Bind().Body(&req); err != nil {
			return errInvalidBody
		}
		if req.Trader == "" {
			return errTraderRequired
		}

		res, err := s.engine.ExecuteSwapApproved(c.Context(), req.PoolID, req.Trader, req.AssetIn, req.AmountIn, req.MinAmountOut, req.Deadline)
		if err != nil {
			return s.httpError(err)
		}
		return c.JSON(res)
	}
}

func (s *Server) handleGetSwap() fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		rec, err := s.engine.GetSwap(id)
		if err != nil {
			return s.httpError(err)
		}
		return c.JSON(rec)
	}
}
