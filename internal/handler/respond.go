package handler

import (
	"backend/pkg/apperror"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// fail writes the error envelope with the status and machine code the error's
// kind dictates. Unclassified errors become a bare 500 without leaking detail.
func fail(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	kind := apperror.KindOf(err)
	if kind == "" {
		c.JSON(status, response.Error(status, "internal server error"))
		return
	}
	c.JSON(status, response.ErrorWithCode(status, string(kind), err.Error()))
}

// currentUserID returns the authenticated user id set by the auth middleware
func currentUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
