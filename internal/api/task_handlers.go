package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"listingsmith/internal/generation"
	"listingsmith/internal/tasks"
)

func (s *Server) listTasks(c *gin.Context) {
	var statuses []tasks.Status
	for _, value := range c.QueryArray("status") {
		status, ok := tasks.ParseStatus(value)
		if !ok {
			s.fail(c, badRequest("list tasks", fmt.Sprintf("unknown status %q", value), nil))
			return
		}
		statuses = append(statuses, status)
	}
	items, err := s.manager.Tasks().ListAll(c.Request.Context(), statuses...)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, TaskListResponse{Items: FromTasks(items)})
}

func (s *Server) getTask(c *gin.Context) {
	ctx := c.Request.Context()
	task, err := s.manager.Tasks().GetByID(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	results, err := s.manager.Tasks().ListResults(ctx, task.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, TaskResponse{Task: WithResults(FromTask(task), results)})
}

func (s *Server) createTask(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest("generate", "invalid request body", err))
		return
	}
	task, err := s.manager.Submit(c.Request.Context(), generation.Request{
		Single:     req.Single,
		Batch:      req.Batch,
		Mode:       tasks.Mode(req.Mode),
		TemplateID: req.TemplateID,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, TaskResponse{Task: FromTask(task)})
}

func (s *Server) importTasks(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		s.fail(c, badRequest("import", "multipart field \"file\" is required", err))
		return
	}
	file, err := header.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer file.Close()

	task, err := s.manager.ImportSpreadsheet(c.Request.Context(), file, header.Filename, c.PostForm("imageDir"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, TaskResponse{Task: FromTask(task)})
}

func (s *Server) deleteTask(c *gin.Context) {
	if err := s.manager.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) startTask(c *gin.Context) {
	task, err := s.manager.SubmitStart(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, TaskResponse{Task: FromTask(task)})
}

func (s *Server) retryTask(c *gin.Context) {
	task, err := s.manager.SubmitRetry(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, TaskResponse{Task: FromTask(task)})
}

func (s *Server) cancelTask(c *gin.Context) {
	task, err := s.manager.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, TaskResponse{Task: FromTask(task)})
}

func (s *Server) selectResult(c *gin.Context) {
	result, err := s.manager.SelectResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ResultResponse{Result: *result})
}

func (s *Server) patchResult(c *gin.Context) {
	var req ResultPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest("update result", "invalid request body", err))
		return
	}
	result, err := s.manager.UpdateResult(c.Request.Context(), c.Param("id"), tasks.ResultPatch{
		Title:        req.Title,
		SellingPoint: req.SellingPoint,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ResultResponse{Result: *result})
}
