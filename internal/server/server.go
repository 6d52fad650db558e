// Package server exposes the pricer, the Greeks engine, the implied
// volatility solver and ranking runs over a gin REST API.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contactkeval/bs-pricer/internal/logger"
	"github.com/contactkeval/bs-pricer/internal/metrics"
	"github.com/contactkeval/bs-pricer/internal/pricing"
	"github.com/contactkeval/bs-pricer/internal/scan"
)

// Scanner runs a ranking scan.
type Scanner interface {
	Run(ctx context.Context) (*scan.Result, error)
}

type Server struct {
	scanner   Scanner
	collector *metrics.Collector
}

// New builds a Server. Either argument may be nil to leave out the scan
// and metrics routes.
func New(scanner Scanner, collector *metrics.Collector) *Server {
	return &Server{scanner: scanner, collector: collector}
}

// Router returns the HTTP routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.collector != nil {
		r.Use(s.collector.Middleware())
		r.GET("/metrics", gin.WrapH(s.collector.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/price", s.Price)
		v1.POST("/greeks", s.Greeks)
		v1.POST("/iv", s.ImpliedVol)
		if s.scanner != nil {
			v1.POST("/scan", s.Scan)
		}
	}
	return r
}

type optionRequest struct {
	Type        pricing.OptionType `json:"type"`
	Spot        float64            `json:"spot"`
	Strike      float64            `json:"strike"`
	Rate        float64            `json:"rate"`
	Vol         float64            `json:"vol"`
	Expiry      float64            `json:"expiry"`
	DivYield    float64            `json:"div_yield"`
	MarketPrice *float64           `json:"market_price,omitempty"`
}

func (req optionRequest) params() pricing.MarketParams {
	return pricing.MarketParams{
		Spot:     req.Spot,
		Strike:   req.Strike,
		Rate:     req.Rate,
		Vol:      req.Vol,
		Expiry:   req.Expiry,
		DivYield: req.DivYield,
	}
}

func bind(c *gin.Context) (optionRequest, bool) {
	var req optionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}

// abortWithError maps pricing sentinels to HTTP status codes.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pricing.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, pricing.ErrDegenerateInput):
		status = http.StatusUnprocessableEntity
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) Price(c *gin.Context) {
	req, ok := bind(c)
	if !ok {
		return
	}
	price, err := pricing.Price(req.Type, req.params())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"price": price})
}

func (s *Server) Greeks(c *gin.Context) {
	req, ok := bind(c)
	if !ok {
		return
	}
	g, err := pricing.ComputeGreeks(req.Type, req.params())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// ImpliedVol answers 200 for every solver outcome, including unresolved.
func (s *Server) ImpliedVol(c *gin.Context) {
	req, ok := bind(c)
	if !ok {
		return
	}
	if req.MarketPrice == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "market_price is required"})
		return
	}
	res, err := pricing.ImpliedVol(req.Type, req.params(), *req.MarketPrice)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Scan runs the configured ranking scan once.
func (s *Server) Scan(c *gin.Context) {
	logger.Infof("received scan request")
	res, err := s.scanner.Run(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
