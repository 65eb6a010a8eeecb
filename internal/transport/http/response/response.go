package response

import "github.com/gin-gonic/gin"

// ErrorBody matches the backend's error shape so clients parse site and
// backend failures the same way.
type ErrorBody struct {
	Detail string `json:"detail"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

func Error(c *gin.Context, httpStatus int, detail string) {
	c.AbortWithStatusJSON(httpStatus, ErrorBody{Detail: detail})
}
