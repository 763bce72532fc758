package route

import (
	"github.com/inkwell-labs/inkwell/internal/controller"
	"github.com/inkwell-labs/inkwell/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Me(r *gin.RouterGroup, userController *controller.UserController, contractController *controller.ContractController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/me")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.GET("", userController.GetMe)
		v1.GET("/contracts", contractController.GetOwnContractList)
	}
}
