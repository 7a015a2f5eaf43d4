package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"listingsmith/internal/api"
	"listingsmith/internal/config"
	"listingsmith/internal/generation"
	"listingsmith/internal/imagedata"
	"listingsmith/internal/logging"
	"listingsmith/internal/product"
	"listingsmith/internal/services/deepseek"
	"listingsmith/internal/services/vision"
	"listingsmith/internal/stage"
	"listingsmith/internal/testsupport"
)

type stubCopywriter struct{}

func (stubCopywriter) Generate(_ context.Context, p deepseek.Product, style deepseek.Style) deepseek.Copy {
	return deepseek.Copy{Title: "Styled " + p.Name, Content: "Body for " + p.Name, Style: style}
}

type stubAnalyzer struct {
	err error
}

func (a stubAnalyzer) Analyze(context.Context, imagedata.Image) (vision.Analysis, error) {
	if a.err != nil {
		return vision.Analysis{}, a.err
	}
	return vision.Analysis{Description: "A running shoe", Category: "shoes"}, nil
}

func (a stubAnalyzer) Caption(context.Context, imagedata.Image) (string, error) {
	return "a shoe", a.err
}

type fixture struct {
	cfg     *config.Config
	manager *generation.Manager
	router  http.Handler
}

func newFixture(t *testing.T, analyzer vision.Analyzer, mutate ...func(*config.Config)) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testsupport.NewConfig(t)
	for _, fn := range mutate {
		fn(cfg)
	}
	db := testsupport.MustOpenStore(t, cfg)
	manager, err := generation.NewManager(cfg, db, nil,
		generation.WithUnit(stage.NopUnit{}),
		generation.WithCopywriter(stubCopywriter{}),
	)
	require.NoError(t, err)
	t.Cleanup(manager.Stop)

	server := api.NewServer(api.Options{Config: cfg, Manager: manager, Analyzer: analyzer})
	return &fixture{cfg: cfg, manager: manager, router: server.Handler()}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) upload(t *testing.T, path, field, fileName string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

// generateSingle submits a single-product run and waits for it to finish.
func (f *fixture) generateSingle(t *testing.T) api.Task {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/tasks", api.GenerateRequest{Single: &product.Input{
		Name:  "Trail Runner",
		Brand: "Acme",
		Image: testsupport.PNGDataURI(t, 40, 30),
	}})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	f.manager.Wait()

	created := decode[api.TaskResponse](t, w)
	got := f.do(t, http.MethodGet, "/api/tasks/"+created.Task.ID, nil)
	require.Equal(t, http.StatusOK, got.Code)
	return decode[api.TaskResponse](t, got).Task
}

func TestHealthIsPublicWhileRoutesRequireToken(t *testing.T) {
	f := newFixture(t, nil, func(cfg *config.Config) { cfg.Paths.APIToken = "secret" })

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/health", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/tasks", nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGenerateRunsAndReturnsResults(t *testing.T) {
	f := newFixture(t, nil)
	task := f.generateSingle(t)

	assert.Equal(t, "completed", task.Status)
	assert.Equal(t, 100, task.Progress)
	assert.Equal(t, "Trail Runner", task.Name)
	require.Len(t, task.Results, 3)
	assert.Equal(t, "Trail Runner", task.Results[0].ProductName)

	list := decode[api.TaskListResponse](t, f.do(t, http.MethodGet, "/api/tasks?status=completed", nil))
	require.Len(t, list.Items, 1)
	assert.Equal(t, task.ID, list.Items[0].ID)
}

func TestErrorStatusMapping(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/tasks", api.GenerateRequest{Single: &product.Input{Name: "  "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decode[api.ErrorResponse](t, w).Kind)

	w = f.do(t, http.MethodGet, "/api/tasks/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[api.ErrorResponse](t, w).Kind)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/tasks?status=bogus", nil).Code)

	task := f.generateSingle(t)
	w = f.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/retry", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decode[api.ErrorResponse](t, w).Kind)
}

func TestSubmitRejectsUnusableImages(t *testing.T) {
	f := newFixture(t, nil, func(cfg *config.Config) { cfg.Upload.MaxImagePixels = 32 * 32 })

	images := map[string]string{
		"text payload": "data:text/plain;base64,aGVsbG8=",
		"not a uri":    "not an image at all",
		"too large":    testsupport.PNGDataURI(t, 64, 64),
	}
	for name, image := range images {
		w := f.do(t, http.MethodPost, "/api/tasks", api.GenerateRequest{Single: &product.Input{Name: "Trail Runner", Image: image}})
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
		assert.Equal(t, "validation", decode[api.ErrorResponse](t, w).Kind, name)
	}

	list := decode[api.TaskListResponse](t, f.do(t, http.MethodGet, "/api/tasks", nil))
	assert.Empty(t, list.Items)
}

func TestStatusCodeTable(t *testing.T) {
	cases := map[error]int{
		errors.New("boom"): http.StatusInternalServerError,
		nil:                http.StatusOK,
	}
	for err, want := range cases {
		assert.Equal(t, want, api.StatusFor(err))
	}
}

func TestSelectPatchAndExport(t *testing.T) {
	f := newFixture(t, nil)
	task := f.generateSingle(t)

	empty := f.do(t, http.MethodGet, "/api/export?format=csv&task="+task.ID, nil)
	assert.Equal(t, http.StatusBadRequest, empty.Code)

	resultID := task.Results[1].ID
	w := f.do(t, http.MethodPost, "/api/results/"+resultID+"/select", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[api.ResultResponse](t, w).Result.Selected)

	title := "Edited title"
	w = f.do(t, http.MethodPatch, "/api/results/"+resultID, api.ResultPatchRequest{Title: &title})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, title, decode[api.ResultResponse](t, w).Result.Title)

	w = f.do(t, http.MethodGet, "/api/export?format=csv&task="+task.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"Edited title"`)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(w.Body.String()), "\n")+1)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/export?format=xml", nil).Code)
}

func TestLibraryAndHistoryRoutes(t *testing.T) {
	f := newFixture(t, nil)
	f.generateSingle(t)

	materials := decode[map[string][]api.Material](t, f.do(t, http.MethodGet, "/api/materials?type=text", nil))
	require.Len(t, materials["items"], 3)

	id := materials["items"][0].ID
	w := f.do(t, http.MethodPost, "/api/materials/"+id+"/favorite", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[map[string]api.Material](t, w)["item"].IsFavorite)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/materials/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/materials/"+id, nil).Code)

	templates := decode[map[string][]api.Template](t, f.do(t, http.MethodGet, "/api/templates", nil))
	require.Len(t, templates["items"], 1)
	assert.Equal(t, "Acme Trail Runner", templates["items"][0].Name)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/templates/"+templates["items"][0].ID+"/favorite", nil).Code)

	history := decode[map[string][]json.RawMessage](t, f.do(t, http.MethodGet, "/api/history", nil))
	require.Len(t, history["items"], 1)
	var entry struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(history["items"][0], &entry))
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/history/"+entry.ID, nil).Code)
}

func TestImportUploadCreatesPendingTask(t *testing.T) {
	f := newFixture(t, nil)

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]any{"name", "brand", "type", "image"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]any{"Tee", "Acme", "shirt", ""}))
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	w := f.upload(t, "/api/tasks/import", "file", "products.xlsx", buf.Bytes())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[api.TaskResponse](t, w).Task
	assert.Equal(t, "pending", task.Status)
	assert.Equal(t, "excel", task.Kind)

	// No row has an image, so starting is rejected and the task stays pending.
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/start", nil).Code)

	assert.Equal(t, http.StatusBadRequest, f.upload(t, "/api/tasks/import", "file", "products.csv", []byte("name\n")).Code)
}

func TestCopywritingRoute(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/copywriting", api.CopyRequest{
		Product: deepseek.Product{Name: "Mug"},
		Style:   string(deepseek.StyleStory),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[api.CopyResponse](t, w)
	assert.Equal(t, "Styled Mug", resp.Copy.Title)
	assert.Nil(t, resp.Result)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/copywriting", api.CopyRequest{
		Product: deepseek.Product{Name: "Mug"},
		Style:   "shouty",
	}).Code)

	task := f.generateSingle(t)
	w = f.do(t, http.MethodPost, "/api/copywriting", api.CopyRequest{ResultID: task.Results[0].ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	applied := decode[api.CopyResponse](t, w)
	require.NotNil(t, applied.Result)
	assert.Equal(t, "Styled Trail Runner", applied.Result.Title)
}

func TestAnalyzeRoute(t *testing.T) {
	unconfigured := newFixture(t, nil)
	png := testsupport.PNG(t, 8, 8)
	assert.Equal(t, http.StatusInternalServerError, unconfigured.upload(t, "/api/vision/analyze", "image", "a.png", png).Code)

	f := newFixture(t, stubAnalyzer{})
	w := f.upload(t, "/api/vision/analyze", "image", "a.png", png)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "shoes", decode[vision.Analysis](t, w).Category)

	w = f.upload(t, "/api/vision/analyze?caption=true", "image", "a.png", png)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a shoe", decode[api.CaptionResponse](t, w).Caption)

	assert.Equal(t, http.StatusBadRequest, f.upload(t, "/api/vision/analyze", "image", "a.txt", []byte("not an image")).Code)
}

func TestStatusRoute(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.cfg.EnsureDirectories())

	w := f.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[api.StatusResponse](t, w)
	assert.True(t, status.Ready)
	assert.Equal(t, 0, status.TaskCounts["pending"])
	assert.Empty(t, status.Running)
}

func TestLogsRoute(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[api.LogsResponse](t, w).Lines)

	require.NoError(t, os.MkdirAll(f.cfg.Paths.LogDir, 0o755))
	require.NoError(t, os.WriteFile(logging.LogFilePath(f.cfg), []byte("a\nb\nc\n"), 0o644))

	w = f.do(t, http.MethodGet, "/api/logs?lines=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[api.LogsResponse](t, w)
	assert.Equal(t, []string{"b", "c"}, body.Lines)
	assert.Equal(t, int64(6), body.Offset)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/logs?lines=x", nil).Code)
}
