package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hakancineli/smmmm/internal/middleware"
	"github.com/hakancineli/smmmm/pkg/jwtutil"
)

// Stable machine-checkable error codes returned next to the human message.
const (
	codeValidation   = "validation_error"
	codeConflict     = "conflict"
	codeNotFound     = "not_found"
	codeUnauthorized = "unauthorized"
	codeUnavailable  = "unavailable"
	codeEncryption   = "encryption_error"
)

func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, echo.Map{"error": message, "code": code})
}

// mustSubject returns the verified claims. Handlers behind RequireKind
// always have them; the zero-value fallback only matters in tests that
// bypass the middleware.
func mustSubject(c echo.Context) *jwtutil.Claims {
	claims, ok := middleware.Subject(c)
	if !ok {
		return &jwtutil.Claims{}
	}
	return claims
}

// pagination carries parsed page/limit query parameters
type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func parsePagination(c echo.Context) pagination {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return pagination{Page: page, Limit: limit}
}

func (p pagination) offset() int {
	return (p.Page - 1) * p.Limit
}

func paginationMeta(p pagination, total int64) echo.Map {
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return echo.Map{
		"page":        p.Page,
		"limit":       p.Limit,
		"total":       total,
		"total_pages": totalPages,
		"has_next":    p.Page < totalPages,
		"has_prev":    p.Page > 1,
	}
}
