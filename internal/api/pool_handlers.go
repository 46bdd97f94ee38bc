package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
)

type createPoolRequest struct {
	Creator string `json:"creator"`
	AssetA  string `json:"asset_a"`
	AssetB  string `json:"asset_b"`
	AmountA uint64 `json:"amount_a"`
	AmountB uint64 `json:"amount_b"`
}

func (s *Server) handleCreatePool() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req createPoolRequest
		if err := c.Bind().Body(&req); err != nil {
			return errInvalidBody
		}
		if req.Creator == "" {
			return errCreatorRequired
		}

		id, err := s.engine.CreatePool(c.Context(), req.Creator, req.AssetA, req.AssetB, req.AmountA, req.AmountB)
		if err != nil {
			return s.httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"pool_id": id})
	}
}

func (s *Server) handleGetPool() fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		pool, err := s.engine.GetPool(id)
		if err != nil {
			return s.httpError(err)
		}
		return c.JSON(pool)
	}
}

type addLiquidityRequest struct {
	Provider     string `json:"provider"`
	AmountA      uint64 `json:"amount_a"`
	AmountB      uint64 `json:"amount_b"`
	MinLiquidity uint64 `json:"min_liquidity"`
	LockSeconds  int64  `json:"lock_seconds"`
}

func (s *Server) handleAddLiquidity() fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var req addLiquidityRequest
		if err := c.Bind().Body(&req); err != nil {
			return errInvalidBody
		}
		if req.Provider == "" {
			return errProviderRequired
		}

		if req.LockSeconds > 0 {
			res, err := s.engine.AddLiquidityWithLock(c.Context(), id, req.Provider,
				req.AmountA, req.AmountB, req.MinLiquidity, time.Duration(req.LockSeconds)*time.Second)
			if err != nil {
				return s.httpError(err)
			}
			return c.JSON(res)
		}

		res, err := s.engine.AddLiquidity(c.Context(), id, req.Provider, req.AmountA, req.AmountB, req.MinLiquidity)
		if err != nil {
			return s.httpError(err)
		}
		return c.JSON(res)
	}
}

type removeLiquidityRequest struct {
	Provider   string `json:"provider"`
	Shares     uint64 `json:"shares"`
	MinAmountA uint64 `json:"min_amount_a"`
	MinAmountB uint64 `json:"min_amount_b"`
}

func (s *Server) handleRemoveLiquidity() fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var req removeLiquidityRequest
		if err := c.Bind().Body(&req); err != nil {
			return errInvalidBody
		}
		if req.Provider == "" {
			return errProviderRequired
		}

		res, err := s.engine.RemoveLiquidity(c.Context(), id, req.Provider, req.Shares, req.MinAmountA, req.MinAmountB)
		if err != nil {
			return s.httpError(err)
		}
		return c.JSON(res)
	}
}

func (s *Server) handleGetLiquidity() fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		pos, err := s.engine.GetLiquidity(id, c.Params("provider"))
		if err != nil {
			return s.httpError(err)
		}
		return c.JSON(pos)
	}
}

func (s *Server) handleGetTimeLock() fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		lock, ok, err := s.engine.GetTimeLock(id, c.Params("provider"))
		if err != nil {
			return s.httpError(err)
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no time lock")
		}
		return c.JSON(lock)
	}
}

func (s *Server) handleGetRewards() fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		state, pending, err := s.engine.GetRewards(id, c.Params("provider"))
		if err != nil {
			return s.httpError(err)
		}
		return c.JSON(fiber.Map{
			"pool_id":    state.PoolID,
			"provider":   state.Provider,
			"last_claim": state.LastClaim,
			"accrued":    state.Accrued,
			"pending":    pending,
		})
	}
}

type claimRewardsRequest struct {
	Provider string `json:"provider"`
}

func (s *Server) handleClaimRewards() fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var req claimRewardsRequest
		if err := c.Bind().Body(&req); err != nil {
			return errInvalidBody
		}
		if req.Provider == "" {
			return errProviderRequired
		}

		claimed, err := s.engine.ClaimRewards(c.Context(), id, req.Provider)
		if err != nil {
			return s.httpError(err)
		}
		return c.JSON(fiber.Map{"claimed": claimed})
	}
}

func paramID(c fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
