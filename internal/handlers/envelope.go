package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-service/internal/pagination"
)

// Every API response uses the same envelope: success, then either data or a
// human-readable message. Paged responses add the resume cursor and the
// has-more flag. Raw error values never reach the wire.

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondPage(c *gin.Context, data interface{}, page pagination.Page) {
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"data":        data,
		"next_cursor": page.NextCursor,
		"has_more":    page.HasMore,
	})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": true, "message": message})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// pageParams reads the cursor and limit query parameters. It writes the
// error response itself when the cursor is unusable.
func pageParams(c *gin.Context) (pagination.Cursor, int, bool) {
	cursor, err := pagination.Decode(c.Query("cursor"))
	if errors.Is(err, pagination.ErrInvalidCursor) {
		respondError(c, http.StatusBadRequest, "invalid cursor")
		return pagination.Cursor{}, 0, false
	}

	size := pagination.ClampSize(intQuery(c, "limit"))
	return cursor, size, true
}

func intQuery(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return n
}
