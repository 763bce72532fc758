package controller

import (
	"github.com/inkwell-labs/inkwell/internal/util"
	"github.com/gin-gonic/gin"
)

type IndexController struct {
	*baseController
}

func (ic IndexController) Index(ctx *gin.Context) {
	util.ResponseSuccess(ctx, gin.H{
		"app": util.GetAppName(),
		"env": ic.app.Config.ENV,
	})
}
