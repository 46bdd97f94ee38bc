// Package api exposes the exchange engine over HTTP.
package api

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"swapLedger/internal/engine"
)

// Server wires engine operations to HTTP routes.
type Server struct {
	engine *engine.Engine
	logger *zap.Logger
}

func NewServer(eng *engine.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: eng, logger: logger}
}

// Register mounts all routes on the given app.
func (s *Server) Register(app *fiber.App) {
	app.Post("/pools", s.handleCreatePool())
	app.Get("/pools/:id", s.handleGetPool())
	app.Post("/pools/:id/liquidity", s.handleAddLiquidity())
	app.Delete("/pools/:id/liquidity", s.handleRemoveLiquidity())
	app.Get("/pools/:id/liquidity/:provider", s.handleGetLiquidity())
	app.Get("/pools/:id/locks/:provider", s.handleGetTimeLock())
	app.Get("/pools/:id/rewards/:provider", s.handleGetRewards())
	app.Post("/pools/:id/rewards/claim", s.handleClaimRewards())

	app.Post("/swaps/quote", s.handleQuote())
	app.Post("/swaps", s.handleSwap())
	app.Post("/swaps/signed", s.handleSignedSwap())
	app.Post("/swaps/approved", s.handleApprovedSwap())
	app.Get("/swaps/:id", s.handleGetSwap())

	app.Get("/treasury", s.handleTreasury())
	app.Post("/treasury/withdraw", s.handleWithdrawFees())
}
