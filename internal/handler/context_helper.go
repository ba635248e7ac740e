package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-series-api/internal/engine"
	"github.com/noah-isme/class-series-api/internal/middleware"
	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
	"github.com/noah-isme/class-series-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

func userIDFromContext(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// snapshotVersion reads the pinned snapshot from the query or the header.
// Zero means unpinned.
func snapshotVersion(c *gin.Context) (uint64, error) {
	raw := c.Query("snapshot_version")
	if raw == "" {
		raw = c.GetHeader(response.SnapshotHeader)
	}
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid snapshot version")
	}
	return v, nil
}

func parseDateParam(raw string) (time.Time, error) {
	date, err := models.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}
	return date, nil
}

func queryFromRequest(c *gin.Context) (engine.Query, error) {
	query := engine.Query{
		ClassTypeID: strings.TrimSpace(c.Query("type")),
		Search:      c.Query("q"),
	}
	if raw := c.Query("date"); raw != "" {
		date, err := parseDateParam(raw)
		if err != nil {
			return engine.Query{}, err
		}
		query.Date = &date
	}
	return query, nil
}
