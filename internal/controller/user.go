package controller

import (
	"net/http"

	"github.com/inkwell-labs/inkwell/internal/util"
	"github.com/gin-gonic/gin"
)

type UserController struct {
	*baseController
}

func (uc UserController) GetMe(ctx *gin.Context) {
	authUser, err := uc.getAuthUser(ctx)
	if err != nil {
		uc.app.Logger.Errorf("Failed to get auth user: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}

	user, err := uc.app.Repository.User.GetById(ctx, nil, authUser.ID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get user", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"user": user,
	})
}
