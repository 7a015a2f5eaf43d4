package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"listingsmith/internal/logging"
	"listingsmith/internal/logs"
)

const (
	defaultLogLines = 200
	maxLogLines     = 5000
	maxLogWait      = 30 * time.Second
)

// getLogs serves GET /api/logs?lines=N&offset=B&wait=S. Without an offset the
// last N lines are returned; clients pass the returned offset back to follow.
func (s *Server) getLogs(c *gin.Context) {
	opts := logs.TailOptions{Offset: -1, Limit: defaultLogLines}
	if raw := c.Query("lines"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.fail(c, badRequest("logs", "lines must be a non-negative integer", err))
			return
		}
		opts.Limit = min(n, maxLogLines)
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || offset < 0 {
			s.fail(c, badRequest("logs", "offset must be a non-negative integer", err))
			return
		}
		opts.Offset = offset
	}
	if raw := c.Query("wait"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds < 0 {
			s.fail(c, badRequest("logs", "wait must be a non-negative number of seconds", err))
			return
		}
		opts.Wait = min(time.Duration(seconds)*time.Second, maxLogWait)
	}

	result, err := logs.Tail(c.Request.Context(), logging.LogFilePath(s.cfg), opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, LogsResponse{Lines: result.Lines, Offset: result.Offset})
}
