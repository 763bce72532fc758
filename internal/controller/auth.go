package controller

import (
	"errors"
	"net/http"

	"github.com/inkwell-labs/inkwell/internal/constant"
	"github.com/inkwell-labs/inkwell/internal/util"
	"github.com/gin-gonic/gin"
)

type AuthController struct {
	*baseController
}

func (ac AuthController) VerifyJwtAccessToken(ctx *gin.Context) {
	token := ctx.Param("token")

	// Keep in mind that verify jwt token does not check database.
	jwtClaims, err := ac.app.JWTService.VerifyJwtToken(token)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), gin.H{
			"tokenValid": false,
		})
		return
	}

	if jwtClaims == nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(errors.New("jwt claim empty")), gin.H{
			"tokenValid": false,
		})
		return
	}

	if jwtClaims.Type != constant.JWT_TYPE_ACCESS {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(errors.New("invalid jwt token type")), gin.H{
			"tokenValid": false,
		})
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"tokenValid": true,
		"payload":    jwtClaims,
	})
}

func (ac AuthController) RefreshAccessToken(ctx *gin.Context) {
	refreshToken, err := util.ReadRefreshToken(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}

	jwtClaims, err := ac.app.JWTService.VerifyJwtToken(refreshToken)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}

	if jwtClaims == nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(errors.New("jwt claim empty")), nil)
		return
	}

	if jwtClaims.Type != constant.JWT_TYPE_REFRESH {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(errors.New("invalid jwt token type")), nil)
		return
	}

	newRefreshToken, newAccessToken, err := ac.app.Repository.JWT.RefreshToken(ctx, nil, refreshToken)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}

	if newRefreshToken == nil || newAccessToken == nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(errors.New("failed to refresh token")), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"refreshToken": newRefreshToken,
		"accessToken":  newAccessToken,
	})
}

func (ac AuthController) Logout(ctx *gin.Context) {
	refreshToken, err := util.ReadRefreshToken(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err), nil)
		return
	}

	if err := ac.app.Repository.JWT.DeleteToken(ctx, nil, refreshToken); err != nil {
		ac.app.Logger.Errorf("Failed to delete refresh token: %v", err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to log out", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}
