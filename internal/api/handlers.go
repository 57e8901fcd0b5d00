package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smc-analyzer/internal/market"
)

// candlePayload mirrors market.Candle with a unix-seconds timestamp, the
// shape chart frontends and data loaders already speak.
type candlePayload struct {
	Time   int64   `json:"time" binding:"required"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type analyzeRequest struct {
	Symbol         string          `json:"symbol" binding:"required"`
	Timeframe      string          `json:"timeframe"`
	Candles        []candlePayload `json:"candles" binding:"required"`
	LowerTFCandles []candlePayload `json:"lowerTimeframeCandles"`
}

func toCandles(payload []candlePayload) []market.Candle {
	candles := make([]market.Candle, len(payload))
	for i, p := range payload {
		candles[i] = market.Candle{
			Index:    i,
			OpenTime: time.Unix(p.Time, 0).UTC(),
			Open:     p.Open,
			High:     p.High,
			Low:      p.Low,
			Close:    p.Close,
			Volume:   p.Volume,
		}
	}
	return candles
}

// handleAnalyze runs the pipeline over the posted candle series.
func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := s.analyzer.Analyze(
		c.Request.Context(),
		req.Symbol,
		market.Timeframe(req.Timeframe),
		toCandles(req.Candles),
		toCandles(req.LowerTFCandles),
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snap)
}

// handleLatestSnapshot serves the most recent persisted snapshot.
func (s *Server) handleLatestSnapshot(c *gin.Context) {
	snap, err := s.analyzer.Latest(
		c.Request.Context(),
		c.Param("symbol"),
		market.Timeframe(c.Param("timeframe")),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if snap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot found"})
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
