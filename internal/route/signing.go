package route

import (
	"github.com/inkwell-labs/inkwell/internal/controller"
	"github.com/gin-gonic/gin"
)

// Signing routes are public: the token in the URL is the capability.
func V1_Signing(r *gin.RouterGroup, sc *controller.SigningController) {
	v1 := r.Group("/v1/signing")
	{
		v1.GET("/:token", sc.GetSigningContract)
		v1.POST("/:token", sc.SignContract)
	}
}

// Signing_Shortlink lives outside the versioned api group so printed links
// stay short.
func Signing_Shortlink(r *gin.Engine, sc *controller.SigningController) {
	r.GET("/sign/:contractId", sc.RedirectToContract)
}
