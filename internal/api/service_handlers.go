package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"listingsmith/internal/preflight"
	"listingsmith/internal/product"
	"listingsmith/internal/services"
	"listingsmith/internal/services/deepseek"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	snapshot, err := preflight.Collect(c.Request.Context(), s.cfg, s.manager.Tasks())
	if err != nil {
		s.fail(c, err)
		return
	}
	if id, ok := s.manager.Running(); ok {
		snapshot.Running = id
	}
	c.JSON(http.StatusOK, FromStatus(snapshot))
}

func (s *Server) copywriting(c *gin.Context) {
	var req CopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest("copywriting", "invalid request body", err))
		return
	}
	style, err := deepseek.ParseStyle(req.Style)
	if err != nil {
		s.fail(c, err)
		return
	}
	ctx := c.Request.Context()

	if id := strings.TrimSpace(req.ResultID); id != "" {
		result, generated, err := s.manager.ApplyCopy(ctx, id, style)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, CopyResponse{Copy: generated, Result: result})
		return
	}

	if strings.TrimSpace(req.Product.Name) == "" {
		s.fail(c, badRequest("copywriting", "product name is required", nil))
		return
	}
	c.JSON(http.StatusOK, CopyResponse{Copy: s.manager.Copy(ctx, req.Product, style)})
}

func (s *Server) analyze(c *gin.Context) {
	if s.analyzer == nil {
		s.fail(c, services.Wrap(services.ErrConfiguration, "api", "analyze", "no vision model configured", nil))
		return
	}
	header, err := c.FormFile("image")
	if err != nil {
		s.fail(c, badRequest("analyze", "multipart field \"image\" is required", err))
		return
	}
	file, err := header.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer file.Close()

	limit := s.cfg.Upload.MaxImageBytes
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		s.fail(c, fmt.Errorf("read upload: %w", err))
		return
	}
	img, err := product.CheckImage(data, limit)
	if err != nil {
		s.fail(c, err)
		return
	}

	if queryBool(c, "caption") {
		caption, err := s.analyzer.Caption(c.Request.Context(), img)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, CaptionResponse{Caption: caption})
		return
	}
	analysis, err := s.analyzer.Analyze(c.Request.Context(), img)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}
