package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anyx-app/secudash-43b2ee93/internal/executor"
	"github.com/anyx-app/secudash-43b2ee93/internal/metrics"
	apperrors "github.com/anyx-app/secudash-43b2ee93/pkg/errors"
	"github.com/anyx-app/secudash-43b2ee93/pkg/logger"
	"github.com/anyx-app/secudash-43b2ee93/pkg/query"
)

// maxBodyBytes bounds a query payload.
const maxBodyBytes = 1 << 20

// Executor runs a decoded payload for a project.
type Executor interface {
	Execute(ctx context.Context, projectID string, p query.Payload) (*executor.Result, error)
}

// QueryHandler serves POST /api/projects/:id/query.
type QueryHandler struct {
	exec Executor
}

// NewQueryHandler creates a QueryHandler
func NewQueryHandler(exec Executor) *QueryHandler {
	return &QueryHandler{exec: exec}
}

// Query decodes the payload, runs it for the project in the path and writes
// {"data": ..., "count": n} or {"error": message}.
func (h *QueryHandler) Query(c *gin.Context) {
	start := time.Now()
	projectID := c.Param("id")

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, apperrors.New(http.StatusRequestEntityTooLarge, "request body too large", err))
			return
		}
		writeError(c, apperrors.BadRequest("failed to read request body"))
		return
	}

	p, err := executor.Decode(raw)
	if err != nil {
		metrics.ObserveQuery("invalid", "", apperrors.From(err).Code, time.Since(start))
		writeError(c, err)
		return
	}
	if p.Operation == "" {
		p.Operation = query.OperationSelect
	}

	res, err := h.exec.Execute(c.Request.Context(), projectID, p)
	code := http.StatusOK
	if err != nil {
		code = apperrors.From(err).Code
	}
	metrics.ObserveQuery(string(p.Operation), p.Table, code, time.Since(start))

	if err != nil {
		writeError(c, err)
		return
	}

	logger.WithRequestID(c.Request.Context(), logger.Get()).Debug("query executed",
		"project", projectID,
		"table", p.Table,
		"operation", p.Operation,
		"count", res.Count,
	)
	c.JSON(http.StatusOK, res)
}

func writeError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.Code >= http.StatusInternalServerError {
		logger.WithRequestID(c.Request.Context(), logger.Get()).Error("query failed", "error", err)
	}
	c.AbortWithStatusJSON(appErr.Code, appErr.Body())
}
