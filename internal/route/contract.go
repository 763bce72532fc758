package route

import (
	"github.com/inkwell-labs/inkwell/internal/controller"
	"github.com/inkwell-labs/inkwell/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Contracts(r *gin.RouterGroup, cc *controller.ContractController, middleware *middleware.Middleware) {
	// Public verification endpoint behind the QR code.
	r.GET("/v1/verify/:contractId", cc.VerifyContract)

	v1 := r.Group("/v1/contracts")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.POST("", cc.CreateContract)
		v1.GET("/:contractId", cc.GetContractById)
		v1.PATCH("/:contractId", cc.UpdateContract)
		v1.POST("/:contractId/send", cc.SendContract)
		v1.POST("/:contractId/finalize", cc.FinalizeContract)
		v1.POST("/:contractId/revoke", cc.RevokeTokens)
	}
}
