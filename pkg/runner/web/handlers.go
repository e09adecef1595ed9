package web

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/interchange"
	"tableflip.dev/taskboard/pkg/order"
	"tableflip.dev/taskboard/pkg/store"
	"tableflip.dev/taskboard/pkg/task"
)

const (
	accountKey = "account"
	serviceKey = "service"

	// maxImportBytes bounds the import request body.
	maxImportBytes = 8 << 20
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, s *Server) {
	e.GET("/healthz", healthz)

	api := e.Group("/api", s.requireAccount)
	api.GET("/board", getBoard)
	api.POST("/tasks", postTask)
	api.POST("/tasks/:id/toggle", toggleTask)
	api.POST("/tasks/:id/move", moveTask)
	api.PUT("/tasks/:id/category", putCategory)
	api.DELETE("/tasks/:id", deleteTask)
	api.POST("/reset", postReset)
	api.GET("/export", getExport)
	api.POST("/import", postImport)
	api.GET("/stream", streamBoard)
}

type addRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

type moveRequest struct {
	Direction string `json:"direction"`
}

type categoryRequest struct {
	Category string `json:"category"`
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// requireAccount resolves the caller's account and attaches its service. The
// stream endpoint may carry the token as a query parameter since EventSource
// cannot set headers.
func (s *Server) requireAccount(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		account := LocalAccount
		if s.Auth != nil {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if token := c.QueryParam("token"); header == "" && token != "" {
				header = "Bearer " + token
			}
			id, err := s.Auth.FromBearerHeader(header)
			if err != nil {
				return c.String(http.StatusUnauthorized, err.Error())
			}
			account = id
		}
		svc, err := s.service(c.Request().Context(), account)
		if err != nil {
			s.logger().WithError(err).WithField("account", account).Error("open store")
			return c.String(http.StatusServiceUnavailable, "store unavailable")
		}
		c.Set(accountKey, account)
		c.Set(serviceKey, svc)
		return next(c)
	}
}

func serviceFrom(c echo.Context) *app.Service {
	svc, _ := c.Get(serviceKey).(*app.Service)
	return svc
}

// respondError maps service errors to status codes.
func respondError(c echo.Context, err error) error {
	var (
		formatErr *interchange.FormatError
		writeErr  *app.WriteFailure
	)
	switch {
	case errors.Is(err, app.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return c.String(http.StatusNotFound, err.Error())
	case errors.As(err, &formatErr):
		return c.String(http.StatusBadRequest, err.Error())
	case errors.As(err, &writeErr):
		return c.JSON(http.StatusBadGateway, map[string]any{
			"error":  err.Error(),
			"failed": writeErr.Failed,
		})
	}
	c.Logger().Error(err)
	return c.String(http.StatusInternalServerError, err.Error())
}

func getBoard(c echo.Context) error {
	ctx := c.Request().Context()
	svc := serviceFrom(c)
	if _, err := svc.ResetIfDue(ctx); err != nil {
		svc.Log.WithError(err).Warn("daily reset failed")
	}
	board, err := svc.Board(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, board)
}

func postTask(c echo.Context) error {
	var req addRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	svc := serviceFrom(c)
	var cat category.Name
	if strings.TrimSpace(req.Category) != "" {
		var err error
		if cat, err = svc.CategorySet().Parse(req.Category); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
	}
	t, err := svc.Add(c.Request().Context(), req.Text, cat)
	if err != nil {
		return respondError(c, err)
	}
	if t == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusCreated, t)
}

func resolveParam(c echo.Context, svc *app.Service) (task.ID, error) {
	return svc.Resolve(c.Request().Context(), c.Param("id"))
}

func toggleTask(c echo.Context) error {
	svc := serviceFrom(c)
	id, err := resolveParam(c, svc)
	if err != nil {
		return respondError(c, err)
	}
	t, err := svc.Toggle(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func moveTask(c echo.Context) error {
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	dir, err := order.ParseDirection(strings.ToLower(strings.TrimSpace(req.Direction)))
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	svc := serviceFrom(c)
	id, err := resolveParam(c, svc)
	if err != nil {
		return respondError(c, err)
	}
	ctx := c.Request().Context()
	if err := svc.Move(ctx, id, dir); err != nil {
		return respondError(c, err)
	}
	board, err := svc.Board(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, board)
}

func putCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	svc := serviceFrom(c)
	cat, err := svc.CategorySet().Parse(req.Category)
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	id, err := resolveParam(c, svc)
	if err != nil {
		return respondError(c, err)
	}
	t, err := svc.SetCategory(c.Request().Context(), id, cat)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func deleteTask(c echo.Context) error {
	svc := serviceFrom(c)
	id, err := resolveParam(c, svc)
	if err != nil {
		return respondError(c, err)
	}
	if err := svc.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func postReset(c echo.Context) error {
	res, err := serviceFrom(c).ResetIfDue(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"date":    res.DateKey,
		"changed": res.Changed,
		"cleared": len(res.Cleared),
	})
}

func getExport(c echo.Context) error {
	format, err := interchange.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	data, err := serviceFrom(c).Export(c.Request().Context(), format)
	if err != nil {
		return respondError(c, err)
	}
	contentType := echo.MIMEApplicationJSONCharsetUTF8
	if format == interchange.YAML {
		contentType = "application/yaml"
	}
	return c.Blob(http.StatusOK, contentType, data)
}

func postImport(c echo.Context) error {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportBytes))
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	res, err := serviceFrom(c).Import(c.Request().Context(), data)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"count":   res.Count,
		"source":  res.Source,
		"message": res.String(),
	})
}
