package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/inkwell-labs/inkwell/internal/constant"
	"github.com/inkwell-labs/inkwell/internal/mailer"
	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/queue"
	"github.com/inkwell-labs/inkwell/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ContractController struct {
	*baseController
}

const (
	ErrContractIdRequired = "contract id is required"
	ErrContractNotFound   = "contract not found"
	ErrNotContractCreator = "you do not have permission to access this contract"
)

// mailTimestampFormat is how timestamps (token expiry, completion time) show
// up inside emails.
const mailTimestampFormat = "Jan 2, 2006 at 3:04 PM MST"

type contractPartyRequest struct {
	Name  string `json:"name" form:"name" binding:"required,strNotEmpty,min=1,max=100"`
	Email string `json:"email" form:"email" binding:"omitempty,email"`
	Role  string `json:"role" form:"role" binding:"required,strNotEmpty,min=1,max=50"`
}

func toModelParties(parties []contractPartyRequest) []model.Party {
	out := make([]model.Party, 0, len(parties))
	for _, p := range parties {
		out = append(out, model.Party{
			Name:  p.Name,
			Email: p.Email,
			Role:  p.Role,
		})
	}
	return out
}

func duplicateRole(parties []contractPartyRequest) string {
	seen := make(map[string]bool, len(parties))
	for _, p := range parties {
		if seen[p.Role] {
			return p.Role
		}
		seen[p.Role] = true
	}
	return ""
}

func (cc ContractController) CreateContract(ctx *gin.Context) {
	type Request struct {
		Title   string                 `json:"title" form:"title" binding:"required,strNotEmpty,min=1,max=100"`
		Type    string                 `json:"type" form:"type" binding:"omitempty,max=50"`
		Blocks  model.BlockList        `json:"blocks" form:"blocks" binding:"omitempty"`
		Parties []contractPartyRequest `json:"parties" form:"parties" binding:"omitempty,dive"`
	}
	var body Request

	user, err := cc.getAuthUser(ctx)
	if err != nil {
		cc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}

	err = ctx.ShouldBind(&body)
	if err != nil {
		cc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	if role := duplicateRole(body.Parties); role != "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(errors.New("party roles must be unique, duplicate role: "+role), "parties"), nil)
		return
	}

	contract, err := cc.app.Repository.Contract.Create(ctx, nil, &model.Contract{
		Title:          body.Title,
		Type:           body.Type,
		Blocks:         body.Blocks,
		CreatedBy:      user.ID,
		CreatedByEmail: user.Email,
		Parties:        toModelParties(body.Parties),
	})
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to create contract", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"contractId": contract.ID,
	})
}

// getOwnContract loads a contract and checks that the authenticated user
// created it.
func (cc ContractController) getOwnContract(ctx *gin.Context) (*model.Contract, bool) {
	contractId := ctx.Params.ByName("contractId")
	if contractId == "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Contract id is required", util.GenerateErrorMessages(errors.New(ErrContractIdRequired), "contractId"), nil)
		return nil, false
	}

	user, err := cc.getAuthUser(ctx)
	if err != nil {
		cc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return nil, false
	}

	contract, err := cc.app.Repository.Contract.GetById(ctx, nil, contractId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Contract not found", util.GenerateErrorMessages(errors.New(ErrContractNotFound), "contractId"), nil)
			return nil, false
		}

		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get contract", util.GenerateErrorMessages(err), nil)
		return nil, false
	}

	if contract.CreatedBy != user.ID {
		util.ResponseFailed(ctx, http.StatusForbidden, "You do not have permission to access this contract", util.GenerateErrorMessages(errors.New(ErrNotContractCreator), "forbidden"), nil)
		return nil, false
	}

	return contract, true
}

func (cc ContractController) GetContractById(ctx *gin.Context) {
	contract, ok := cc.getOwnContract(ctx)
	if !ok {
		return
	}

	// Reads converge the status in case a past consumption committed the
	// signature but lost the completion transition.
	if err := cc.app.Repository.Contract.ReconcileStatus(ctx, nil, contract); err != nil {
		cc.app.Logger.Errorf("Failed to reconcile contract status: %v", err)
	}

	signatures, err := cc.app.Repository.Signature.GetByContractId(ctx, nil, contract.ID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get signatures", util.GenerateErrorMessages(err), nil)
		return
	}

	if len(signatures) == 0 {
		signatures = []model.Signature{}
	}

	util.ResponseSuccess(ctx, gin.H{
		"contract":   contract,
		"signatures": signatures,
	})
}

type GetContractsRequest struct {
	Page     uint                      `json:"page" form:"page" binding:"omitempty"`
	PageSize uint                      `json:"pageSize" form:"pageSize" binding:"omitempty"`
	Status   []constant.ContractStatus `json:"status" form:"status" binding:"omitempty"`
	Search   string                    `json:"search" form:"search" binding:"omitempty"`
}

func (cc ContractController) GetOwnContractList(ctx *gin.Context) {
	var params GetContractsRequest

	user, err := cc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}

	err = ctx.ShouldBindQuery(&params)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	params.Page, params.PageSize = util.NormalizePage(params.Page, params.PageSize)
	if params.Status == nil {
		params.Status = []constant.ContractStatus{constant.ContractStatusDraft, constant.ContractStatusPending, constant.ContractStatusCompleted}
	}

	contracts, totalCount, err := cc.app.Repository.Contract.GetByCreator(ctx, nil, user.ID, params.Search, params.Status, params.Page, params.PageSize)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get contract list", util.GenerateErrorMessages(err), nil)
		return
	}

	if len(contracts) == 0 {
		contracts = []model.Contract{}
	}

	util.ResponseSuccess(ctx, gin.H{
		"total":     totalCount,
		"contracts": contracts,
		"page":      params.Page,
		"pageSize":  params.PageSize,
		"totalPage": util.CalculateTotalPage(totalCount, params.PageSize),
		"search":    params.Search,
		"status":    params.Status,
	})
}

func (cc ContractController) UpdateContract(ctx *gin.Context) {
	type Request struct {
		Title   string                 `json:"title" form:"title" binding:"required,strNotEmpty,min=1,max=100"`
		Type    string                 `json:"type" form:"type" binding:"omitempty,max=50"`
		Blocks  model.BlockList        `json:"blocks" form:"blocks" binding:"omitempty"`
		Parties []contractPartyRequest `json:"parties" form:"parties" binding:"omitempty,dive"`
	}
	var body Request

	contract, ok := cc.getOwnContract(ctx)
	if !ok {
		return
	}

	err := ctx.ShouldBind(&body)
	if err != nil {
		cc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	if role := duplicateRole(body.Parties); role != "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(errors.New("party roles must be unique, duplicate role: "+role), "parties"), nil)
		return
	}

	updated, err := cc.app.Repository.Contract.UpdateDraft(ctx, nil, contract.ID, body.Title, body.Type, body.Blocks, toModelParties(body.Parties))
	if err != nil {
		switch {
		case errors.Is(err, model.ErrContractNotDraft):
			util.ResponseFailed(ctx, http.StatusConflict, "Contract is no longer a draft", util.GenerateErrorMessages(err, "status"), nil)
		case errors.Is(err, model.ErrPartiesLocked):
			util.ResponseFailed(ctx, http.StatusConflict, "Parties can no longer be changed", util.GenerateErrorMessages(err, "parties"), nil)
		default:
			util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to update contract", util.GenerateErrorMessages(err), nil)
		}
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"contract": updated,
	})
}

// SendContract moves a draft to pending and issues a signing token for every
// party that has an email address. The status flip and all token inserts
// commit together; invitation emails are queued only after the commit so a
// rollback never leaves live links in recipient inboxes.
func (cc ContractController) SendContract(ctx *gin.Context) {
	user, err := cc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}

	contract, ok := cc.getOwnContract(ctx)
	if !ok {
		return
	}

	if !contract.Sendable() {
		util.ResponseFailed(ctx, http.StatusConflict, "Contract cannot be sent", util.GenerateErrorMessages(errors.New("contract must be a draft with at least one party email"), "status"), nil)
		return
	}

	tx := cc.app.Repository.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to send contract", util.GenerateErrorMessages(errors.New("failed to send contract")), nil)
		}
	}()

	marked, err := cc.app.Repository.Contract.MarkPending(ctx, tx, contract.ID)
	if err != nil {
		tx.Rollback()
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to send contract", util.GenerateErrorMessages(err), nil)
		return
	}
	if !marked {
		// A concurrent send already flipped the status.
		tx.Rollback()
		util.ResponseFailed(ctx, http.StatusConflict, "Contract has already been sent", util.GenerateErrorMessages(errors.New("contract is no longer a draft"), "status"), nil)
		return
	}

	type issued struct {
		token *model.SigningToken
		party model.Party
	}
	var issuedTokens []issued

	for _, party := range contract.Parties {
		if party.Email == "" {
			continue
		}

		token, err := cc.app.Repository.SigningToken.Issue(ctx, tx, contract.ID, party.Email, party.Role, cc.app.Config.Signing.TokenTTL)
		if err != nil {
			tx.Rollback()
			util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to issue signing tokens", util.GenerateErrorMessages(err), nil)
			return
		}
		issuedTokens = append(issuedTokens, issued{token: token, party: party})
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to send contract", util.GenerateErrorMessages(err), nil)
		return
	}

	senderName := user.FirstName
	if senderName != "" && user.LastName != "" {
		senderName += " " + user.LastName
	}

	dispatchFailed := 0
	for _, it := range issuedTokens {
		err := cc.app.Dispatcher.DispatchContractReady(it.party.Email, queue.ContractReadyJobData{
			ContractID: contract.ID,
			TokenID:    it.token.ID,
			ContractReadyData: mailer.ContractReadyData{
				ContractTitle: contract.Title,
				RecipientName: it.party.Name,
				SenderName:    senderName,
				SigningURL:    util.GetSigningURL(cc.app.Config.FrontendURL, it.token.Token),
				ExpiresAt:     it.token.ExpiresAt.Format(mailTimestampFormat),
			},
		})
		if err != nil {
			cc.app.Logger.Errorf("Failed to dispatch signing invitation for contract %s party %s: %v", contract.ID, it.party.Role, err)
			dispatchFailed++
		}
	}

	if dispatchFailed > 0 {
		// Tokens stay valid; the creator can re-send the invitations.
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Contract sent but some invitations could not be queued", util.GenerateErrorMessages(errors.New("failed to queue signing invitations")), gin.H{
			"tokensIssued":   len(issuedTokens),
			"dispatchFailed": dispatchFailed,
		})
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"tokensIssued": len(issuedTokens),
	})
}

// FinalizeContract re-queues the fully-executed notification for a completed
// contract. The automatic notification fires once on completion; this
// endpoint exists for the creator to re-deliver it.
func (cc ContractController) FinalizeContract(ctx *gin.Context) {
	contract, ok := cc.getOwnContract(ctx)
	if !ok {
		return
	}

	if err := cc.app.Repository.Contract.ReconcileStatus(ctx, nil, contract); err != nil {
		cc.app.Logger.Errorf("Failed to reconcile contract status: %v", err)
	}

	if contract.Status != constant.ContractStatusCompleted {
		util.ResponseFailed(ctx, http.StatusConflict, "Contract is not completed", util.GenerateErrorMessages(errors.New("contract must be completed before finalizing"), "status"), nil)
		return
	}

	queued, failed := dispatchFinalizedMail(cc.app.Dispatcher, cc.app.Config.FrontendURL, contract)
	for _, err := range failed {
		cc.app.Logger.Errorf("Failed to dispatch finalized notification for contract %s: %v", contract.ID, err)
	}

	if len(failed) > 0 {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Some notifications could not be queued", util.GenerateErrorMessages(errors.New("failed to queue finalized notifications")), gin.H{
			"queued": queued,
		})
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"queued": queued,
	})
}

// RevokeTokens revokes outstanding signing tokens for a contract. An optional
// party query narrows the revocation to a single role.
func (cc ContractController) RevokeTokens(ctx *gin.Context) {
	type Request struct {
		Party string `json:"party" form:"party" binding:"omitempty,max=50"`
	}
	var body Request

	contract, ok := cc.getOwnContract(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	if body.Party != "" && !contract.RoleDefined(body.Party) {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(model.ErrUnknownParty, "party"), nil)
		return
	}

	revoked, err := cc.app.Repository.SigningToken.RevokeOutstanding(ctx, nil, contract.ID, body.Party)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to revoke signing tokens", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"revoked": revoked,
	})
}

// VerifyContract is the public verification endpoint behind the QR code on
// finalized documents. It exposes only execution facts, never content.
func (cc ContractController) VerifyContract(ctx *gin.Context) {
	contractId := ctx.Params.ByName("contractId")
	if contractId == "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Contract id is required", util.GenerateErrorMessages(errors.New(ErrContractIdRequired), "contractId"), nil)
		return
	}

	contract, err := cc.app.Repository.Contract.GetById(ctx, nil, contractId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Contract not found", util.GenerateErrorMessages(errors.New(ErrContractNotFound), "contractId"), nil)
			return
		}

		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to verify contract", util.GenerateErrorMessages(err), nil)
		return
	}

	if err := cc.app.Repository.Contract.ReconcileStatus(ctx, nil, contract); err != nil {
		cc.app.Logger.Errorf("Failed to reconcile contract status: %v", err)
	}

	type partySummary struct {
		Name     string `json:"name"`
		Role     string `json:"role"`
		Signed   bool   `json:"signed"`
		SignedAt string `json:"signedAt,omitempty"`
	}

	signatures, err := cc.app.Repository.Signature.GetByContractId(ctx, nil, contract.ID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to verify contract", util.GenerateErrorMessages(err), nil)
		return
	}

	signedAtByRole := make(map[string]time.Time, len(signatures))
	for _, sig := range signatures {
		signedAtByRole[sig.PartyRole] = sig.SignedAt
	}

	parties := make([]partySummary, 0, len(contract.Parties))
	for _, p := range contract.Parties {
		summary := partySummary{Name: p.Name, Role: p.Role, Signed: p.Signed}
		if at, ok := signedAtByRole[p.Role]; ok {
			summary.SignedAt = at.Format(time.RFC3339)
		}
		parties = append(parties, summary)
	}

	util.ResponseSuccess(ctx, gin.H{
		"contractId": contract.ID,
		"title":      contract.Title,
		"status":     contract.Status,
		"completed":  contract.Status == constant.ContractStatusCompleted,
		"parties":    parties,
	})
}

// dispatchFinalizedMail queues the fully-executed notification for every
// party with an email plus the creator. Shared between the consumption path
// and the explicit finalize endpoint.
func dispatchFinalizedMail(dispatcher *queue.MailDispatcher, frontendURL string, contract *model.Contract) (int, []error) {
	completedAt := time.Now()
	if contract.UpdatedAt != nil {
		completedAt = *contract.UpdatedAt
	}

	type recipient struct {
		email string
		name  string
	}

	recipients := make([]recipient, 0, len(contract.Parties)+1)
	seen := make(map[string]bool)
	for _, p := range contract.Parties {
		if p.Email == "" || seen[p.Email] {
			continue
		}
		seen[p.Email] = true
		recipients = append(recipients, recipient{email: p.Email, name: p.Name})
	}
	if contract.CreatedByEmail != "" && !seen[contract.CreatedByEmail] {
		recipients = append(recipients, recipient{email: contract.CreatedByEmail})
	}

	queued := 0
	var failed []error
	for _, r := range recipients {
		err := dispatcher.DispatchContractFinalized(r.email, queue.ContractFinalizedJobData{
			ContractID: contract.ID,
			ContractFinalizedData: mailer.ContractFinalizedData{
				ContractTitle: contract.Title,
				RecipientName: r.name,
				VerifyURL:     util.GetVerifyURL(frontendURL, contract.ID),
				CompletedAt:   completedAt.Format(mailTimestampFormat),
			},
		})
		if err != nil {
			failed = append(failed, err)
			continue
		}
		queued++
	}

	return queued, failed
}
