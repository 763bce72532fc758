package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SigningController struct {
	*baseController
}

const (
	ErrSigningTokenRequired = "signing token is required"
	ErrSigningLinkInvalid   = "signing link is invalid"
)

// signingTokenStatus maps a token lifecycle error to the HTTP status the
// recipient sees. Used and revoked links are conflicts the recipient cannot
// fix; expired links are gone and need re-issuance by the creator.
func signingTokenStatus(err error) (int, string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "Signing link not found"
	case errors.Is(err, model.ErrSigningTokenUsed):
		return http.StatusConflict, "Signing link has already been used"
	case errors.Is(err, model.ErrSigningTokenRevoked):
		return http.StatusConflict, "Signing link has been revoked"
	case errors.Is(err, model.ErrPartyAlreadySigned):
		return http.StatusConflict, "You have already signed this contract"
	case errors.Is(err, model.ErrContractCompleted):
		return http.StatusConflict, "Contract has already been completed"
	case errors.Is(err, model.ErrSigningTokenExpired):
		return http.StatusGone, "Signing link has expired"
	default:
		return http.StatusInternalServerError, "Failed to process signing link"
	}
}

// GetSigningContract resolves a signing link into the contract the recipient
// is asked to sign. No authentication: possession of the token is the
// capability.
func (sc SigningController) GetSigningContract(ctx *gin.Context) {
	tokenString := ctx.Params.ByName("token")
	if tokenString == "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Signing token is required", util.GenerateErrorMessages(errors.New(ErrSigningTokenRequired), "token"), nil)
		return
	}

	token, err := sc.app.Repository.SigningToken.GetByToken(ctx, nil, tokenString)
	if err != nil {
		code, message := signingTokenStatus(err)
		util.ResponseFailed(ctx, code, message, util.GenerateErrorMessages(errors.New(ErrSigningLinkInvalid), "token"), nil)
		return
	}

	if err := token.Validate(time.Now()); err != nil {
		code, message := signingTokenStatus(err)
		util.ResponseFailed(ctx, code, message, util.GenerateErrorMessages(err, "token"), nil)
		return
	}

	contract, err := sc.app.Repository.Contract.GetById(ctx, nil, token.ContractID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to load contract", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"contract": gin.H{
			"id":     contract.ID,
			"title":  contract.Title,
			"type":   contract.Type,
			"status": contract.Status,
			"blocks": contract.Blocks,
		},
		"party":          token.Party,
		"recipientEmail": token.RecipientEmail,
		"expiresAt":      token.ExpiresAt,
	})
}

// SignContract consumes a signing link. On the consumption that completes
// the contract, the fully-executed notification is queued exactly once.
func (sc SigningController) SignContract(ctx *gin.Context) {
	type Request struct {
		SignatureData string `json:"signatureData" form:"signatureData" binding:"required,strNotEmpty"`
	}
	var body Request

	tokenString := ctx.Params.ByName("token")
	if tokenString == "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Signing token is required", util.GenerateErrorMessages(errors.New(ErrSigningTokenRequired), "token"), nil)
		return
	}

	if err := ctx.ShouldBind(&body); err != nil {
		sc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	result, err := sc.app.Repository.SigningToken.Consume(ctx, nil, tokenString, body.SignatureData, ctx.ClientIP())
	if err != nil {
		code, message := signingTokenStatus(err)
		util.ResponseFailed(ctx, code, message, util.GenerateErrorMessages(err, "token"), nil)
		return
	}

	if result.Completed {
		// This consumption won the completion transition, so it alone queues
		// the notifications. The signature is already committed: a queue
		// outage is reported but never rolls the signing back.
		queued, failed := dispatchFinalizedMail(sc.app.Dispatcher, sc.app.Config.FrontendURL, result.Contract)
		for _, dispatchErr := range failed {
			sc.app.Logger.Errorf("Failed to dispatch finalized notification for contract %s: %v", result.Contract.ID, dispatchErr)
		}

		if len(failed) > 0 {
			util.ResponseFailed(ctx, http.StatusInternalServerError, "Signed, but notifications could not be queued", util.GenerateErrorMessages(errors.New("failed to queue finalized notifications")), gin.H{
				"signed":    true,
				"completed": true,
				"queued":    queued,
			})
			return
		}
	}

	util.ResponseSuccess(ctx, gin.H{
		"signed":      true,
		"completed":   result.Completed,
		"status":      result.Contract.Status,
		"signatureId": result.Signature.ID,
	})
}

// RedirectToContract is the shortlink printed on paper copies. It bounces to
// the canonical frontend page for the contract.
func (sc SigningController) RedirectToContract(ctx *gin.Context) {
	contractId := ctx.Params.ByName("contractId")
	if contractId == "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Contract id is required", util.GenerateErrorMessages(errors.New(ErrContractIdRequired), "contractId"), nil)
		return
	}

	ctx.Redirect(http.StatusTemporaryRedirect, util.GetVerifyURL(sc.app.Config.FrontendURL, contractId))
}
