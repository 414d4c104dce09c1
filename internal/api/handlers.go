package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/journal"
	"trade-journal/internal/logging"
	"trade-journal/internal/store"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
	maxUpload    = 10 << 20
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   s.opts.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) createTrade(c *gin.Context) {
	var in journal.TradeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	trade, err := s.svc.CreateTrade(c.Request.Context(), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trade)
}

func (s *Server) listTrades(c *gin.Context) {
	filter := store.TradeFilter{
		Symbol: strings.TrimSpace(c.Query("symbol")),
		Limit:  defaultLimit,
	}

	var err error
	if filter.AccountID, err = queryInt64(c, "account_id", 0); err != nil {
		s.writeError(c, err)
		return
	}
	skip, err := queryInt64(c, "skip", 0)
	if err != nil {
		s.writeError(c, err)
		return
	}
	limit, err := queryInt64(c, "limit", defaultLimit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	filter.Offset = int(skip)
	filter.Limit = int(limit)
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}

	if raw := c.Query("closed"); raw != "" {
		closed, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(c, apperrors.NewValidationError("closed", raw, "closed must be true or false"))
			return
		}
		filter.ClosedOnly = closed
		filter.OpenOnly = !closed
	}

	trades, err := s.svc.ListTrades(c.Request.Context(), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}

func (s *Server) getTrade(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	trade, err := s.svc.GetTrade(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trade)
}

func (s *Server) closeTrade(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	var in journal.CloseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	trade, err := s.svc.CloseTrade(c.Request.Context(), id, in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trade)
}

func (s *Server) stats(c *gin.Context) {
	accountID, err := queryInt64(c, "account_id", 0)
	if err != nil {
		s.writeError(c, err)
		return
	}

	var capital *float64
	if raw := c.Query("starting_capital"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(c, apperrors.NewValidationError("starting_capital", raw, "starting_capital must be a number"))
			return
		}
		capital = &v
	}

	snap, err := s.svc.Snapshot(c.Request.Context(), accountID, capital)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) importTrades(c *gin.Context) {
	accountID, err := queryInt64(c, "account_id", 0)
	if err != nil {
		s.writeError(c, err)
		return
	}
	source := c.DefaultQuery("source", "csv")

	var body io.Reader = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field: " + err.Error()})
			return
		}
		f, err := fh.Open()
		if err != nil {
			s.writeError(c, err)
			return
		}
		defer f.Close()
		body = f
	}

	res, err := s.svc.Import(c.Request.Context(), accountID, body, source)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) exportTrades(c *gin.Context) {
	accountID, err := queryInt64(c, "account_id", 0)
	if err != nil {
		s.writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if _, err := s.svc.Export(c.Request.Context(), accountID, &buf); err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="trades-%d.csv"`, accountID))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// writeError maps the error taxonomy onto HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidTradeData), apperrors.Is(err, apperrors.ErrImportFormat):
		status = http.StatusBadRequest
	case apperrors.Is(err, apperrors.ErrTradeNotFound):
		status = http.StatusNotFound
	case apperrors.Is(err, apperrors.ErrTradeAlreadyClosed):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logger := logging.FromContext(c.Request.Context())
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func queryInt64(c *gin.Context, name string, def int64) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError(name, raw, name+" must be an integer")
	}
	return v, nil
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("id", c.Param("id"), "trade id must be a positive integer")
	}
	return id, nil
}
