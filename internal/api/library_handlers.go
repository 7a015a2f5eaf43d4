package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"listingsmith/internal/export"
	"listingsmith/internal/library"
)

var contentTypes = map[export.Format]string{
	export.FormatJSON:    "application/json; charset=utf-8",
	export.FormatCSV:     "text/csv; charset=utf-8",
	export.FormatParquet: "application/vnd.apache.parquet",
}

func queryBool(c *gin.Context, key string) bool {
	value, _ := strconv.ParseBool(c.Query(key))
	return value
}

func (s *Server) exportResults(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatJSON)))
	if err != nil {
		s.fail(c, err)
		return
	}
	results, err := s.manager.Tasks().ListSelected(c.Request.Context(), c.Query("task"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := s.exporter.Write(&buf, results, format); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+s.exporter.FileName(format)+`"`)
	c.Data(http.StatusOK, contentTypes[format], buf.Bytes())
}

func (s *Server) listMaterials(c *gin.Context) {
	items, err := s.manager.Materials().ListAll(c.Request.Context(), library.MaterialFilter{
		Type:          library.MaterialType(c.Query("type")),
		Category:      c.Query("category"),
		FavoritesOnly: queryBool(c, "favorites"),
		Search:        c.Query("search"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": FromMaterials(items)})
}

func (s *Server) favoriteMaterial(c *gin.Context) {
	item, err := s.manager.Materials().ToggleFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": FromMaterial(item)})
}

func (s *Server) deleteMaterial(c *gin.Context) {
	if err := s.manager.Materials().RemoveByID(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listTemplates(c *gin.Context) {
	items, err := s.manager.Templates().ListAll(c.Request.Context(), library.TemplateFilter{
		Category:      c.Query("category"),
		FavoritesOnly: queryBool(c, "favorites"),
		Search:        c.Query("search"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": FromTemplates(items)})
}

func (s *Server) favoriteTemplate(c *gin.Context) {
	item, err := s.manager.Templates().ToggleFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": FromTemplate(item)})
}

func (s *Server) deleteTemplate(c *gin.Context) {
	if err := s.manager.Templates().RemoveByID(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listHistory(c *gin.Context) {
	entries, err := s.manager.History().ListAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if entries == nil {
		c.JSON(http.StatusOK, gin.H{"items": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

func (s *Server) deleteHistory(c *gin.Context) {
	if err := s.manager.History().RemoveByID(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
