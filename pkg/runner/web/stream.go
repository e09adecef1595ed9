package web

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

const sseDataPrefix = "data: "

// streamBoard pushes the board as server-sent events, once on connect and again
// after every store change.
func streamBoard(c echo.Context) error {
	svc := serviceFrom(c)
	ctx := c.Request().Context()

	boards, err := svc.Watch(ctx)
	if err != nil {
		return respondError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.String(http.StatusInternalServerError, "stream unsupported")
	}
	c.Response().WriteHeader(http.StatusOK)

	for {
		select {
		case <-ctx.Done():
			return nil
		case board, ok := <-boards:
			if !ok {
				return nil
			}
			data, err := json.Marshal(board)
			if err != nil {
				c.Logger().Error(err)
				return err
			}
			if _, err := c.Response().Write([]byte(sseDataPrefix)); err != nil {
				return nil
			}
			if _, err := c.Response().Write(data); err != nil {
				return nil
			}
			if _, err := c.Response().Write([]byte("\n\n")); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
