package routing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lloydmeta/assetversions/internal/api/models/common"
)

var notFoundErr = common.ApiError{
	StatusCode: http.StatusNotFound,
	Body: common.Body{
		Message: "No such route.",
	},
}

var noMethodErr = common.ApiError{
	StatusCode: http.StatusMethodNotAllowed,
	Body: common.Body{
		Message: "Method not allowed.",
	},
}

func NoRoute(c *gin.Context) {
	HandleApiErr(c, &notFoundErr)
}

func NoMethod(c *gin.Context) {
	HandleApiErr(c, &noMethodErr)
}

func HandleApiErr(c *gin.Context, apiError *common.ApiError) {
	c.JSON(apiError.StatusCode, apiError.Body)
}
