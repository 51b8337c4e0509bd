package api

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"q5engine/internal/engine"
	"q5engine/internal/models"
	"q5engine/internal/sink"
)

const (
	stateLoading = "loading"
	stateReady   = "ready"
	stateFailed  = "failed"
)

// threadsPerCPU bounds the per-request thread override at this many workers
// per CPU (or per configured default thread, whichever is larger).
const threadsPerCPU = 4

type Handler struct {
	mu      sync.RWMutex
	tables  *engine.Tables
	loadErr error
	threads int
}

// NewHandler serves queries against tables. A nil tables means loading is in
// progress; requests get 503 until SetTables or SetLoadError is called.
func NewHandler(tables *engine.Tables, defaultThreads int) *Handler {
	return &Handler{tables: tables, threads: defaultThreads}
}

func (h *Handler) SetTables(t *engine.Tables) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tables = t
	h.loadErr = nil
}

func (h *Handler) SetLoadError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loadErr = err
}

func (h *Handler) snapshot() (*engine.Tables, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tables, h.loadErr
}

func (h *Handler) maxThreads() int {
	return max(h.threads, runtime.NumCPU()) * threadsPerCPU
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/revenue", h.GetRevenueByNation)
	api.GET("/status", h.GetStatus)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// --- HANDLERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) ready() (*engine.Tables, error) {
	tables, loadErr := h.snapshot()
	if loadErr != nil {
		return nil, Internal(loadErr)
	}
	if tables == nil {
		return nil, Unavailable("tables are still loading")
	}
	return tables, nil
}

// GetRevenueByNation runs the query and returns nations by revenue, highest first.
func (h *Handler) GetRevenueByNation(c echo.Context) error {
	tables, err := h.ready()
	if err != nil {
		return err
	}

	q := engine.Query{
		Region:    c.QueryParam("region"),
		StartDate: c.QueryParam("start"),
		EndDate:   c.QueryParam("end"),
		Threads:   h.threads,
	}
	if raw := c.QueryParam("threads"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return BadRequest("threads must be an integer")
		}
		if limit := h.maxThreads(); n > limit {
			return BadRequest(fmt.Sprintf("threads must be at most %d", limit))
		}
		q.Threads = n
	}

	report, err := engine.Execute(c.Request().Context(), tables, q)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidQuery) {
			return BadRequest(err.Error())
		}
		return Internal(err)
	}

	ranked := sink.ByRevenue(report.Result)
	total := len(ranked)
	limit, offset := getPaginationParams(c, total)

	page := []models.NationRevenue{}
	if offset < total {
		end := total
		if limit < total-offset {
			end = offset + limit
		}
		page = ranked[offset:end]
	}

	return c.JSON(http.StatusOK, models.RevenueResponse{
		QueryID: report.ID,
		Region:  q.Region,
		Start:   q.StartDate,
		End:     q.EndDate,
		Data:    page,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		Stats:   report.Stats,
	})
}

func (h *Handler) GetStatus(c echo.Context) error {
	tables, loadErr := h.snapshot()
	switch {
	case loadErr != nil:
		return c.JSON(http.StatusOK, models.Status{State: stateFailed, Error: loadErr.Error()})
	case tables == nil:
		return c.JSON(http.StatusOK, models.Status{State: stateLoading})
	default:
		counts := tables.Counts()
		return c.JSON(http.StatusOK, models.Status{State: stateReady, Tables: &counts})
	}
}
