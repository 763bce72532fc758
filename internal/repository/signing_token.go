package repository

import (
	"context"
	"errors"
	"time"

	constant "github.com/inkwell-labs/inkwell/internal/constant"
	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/util"
	"gorm.io/gorm"
)

// ErrSigningTokenConflict means token generation kept colliding with existing
// rows; the caller may retry the whole issuance.
var ErrSigningTokenConflict = errors.New("failed to generate a unique signing token")

type SigningTokenRepository struct {
	*baseRepository
	contract  *ContractRepository
	signature *SignatureRepository
}

// ConsumeResult carries everything the caller needs after a successful
// consumption: the refreshed contract, the new signature record, and whether
// this consumption was the one that completed the contract.
type ConsumeResult struct {
	Contract  *model.Contract
	Signature *model.Signature
	Completed bool
}

// Issue creates a fresh signing token for one (contract, party) pair.
// Any outstanding unconsumed token for the same pair is revoked first, so at
// most one live signing link exists per party. Token strings are generated
// with bounded retries; a persistent collision surfaces as
// ErrSigningTokenConflict.
func (str SigningTokenRepository) Issue(ctx context.Context, tx *gorm.DB, contractId, recipientEmail, party string, ttl time.Duration) (*model.SigningToken, error) {
	str.logger.Debugf("Issue signing token for contract: %s party: %s \n", contractId, party)

	db := str.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var issued *model.SigningToken
	txErr := str.withTx(db, func(tx2 *gorm.DB) error {
		contract, err := str.contract.GetById(ctx, tx2, contractId)
		if err != nil {
			return err
		}

		if contract.Status == constant.ContractStatusCompleted {
			return model.ErrContractCompleted
		}
		if !contract.RoleDefined(party) {
			return model.ErrUnknownParty
		}
		if p := contract.PartyByRole(party); p != nil && p.Signed {
			return model.ErrPartyAlreadySigned
		}

		if _, err := str.RevokeOutstanding(ctx, tx2, contractId, party); err != nil {
			return err
		}

		for attempt := 0; attempt < constant.SIGNING_TOKEN_MAX_GENERATE_ATTEMPTS; attempt++ {
			tokenString, err := util.GenerateNChar(constant.SIGNING_TOKEN_LENGTH)
			if err != nil {
				return err
			}

			var count int64
			if err := tx2.WithContext(ctx).Model(&model.SigningToken{}).Where("token = ?", tokenString).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				str.logger.Debugf("Signing token collision on attempt %d, regenerating \n", attempt+1)
				continue
			}

			token := model.SigningToken{
				Token:          tokenString,
				ContractID:     contractId,
				RecipientEmail: recipientEmail,
				Party:          party,
				ExpiresAt:      time.Now().Add(ttl),
			}
			if err := tx2.WithContext(ctx).Create(&token).Error; err != nil {
				return err
			}

			issued = &token
			return nil
		}

		return ErrSigningTokenConflict
	})

	return issued, txErr
}

func (str SigningTokenRepository) GetById(ctx context.Context, tx *gorm.DB, tokenId string) (*model.SigningToken, error) {
	str.logger.Debugf("Get signing token by id: %s \n", tokenId)

	db := str.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var token model.SigningToken
	if err := db.WithContext(ctx).Model(&model.SigningToken{}).Where(&model.SigningToken{
		BaseModel: model.BaseModel{ID: tokenId},
	}).First(&token).Error; err != nil {
		return nil, err
	}

	return &token, nil
}

func (str SigningTokenRepository) GetByToken(ctx context.Context, tx *gorm.DB, tokenString string) (*model.SigningToken, error) {
	str.logger.Debugf("Get signing token \n")

	db := str.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var token model.SigningToken
	if err := db.WithContext(ctx).Model(&model.SigningToken{}).Where(&model.SigningToken{
		Token: tokenString,
	}).First(&token).Error; err != nil {
		return nil, err
	}

	return &token, nil
}

// Consume redeems a signing token. The full sequence runs in one transaction:
// signature insert, token consumption, party update, completion check.
// Validation failures are distinct errors so the user learns the actual
// remediation path (request a new link vs already done).
//
// The contract row is locked for the duration of the transaction, so
// consumptions on one contract run one at a time and the completion check
// always sees the latest committed party state. The token flip is additionally
// a conditional update guarded on used=false, not a read-then-write: of N
// concurrent consumptions of the same token exactly one commits, the rest
// fail with ErrSigningTokenUsed.
func (str SigningTokenRepository) Consume(ctx context.Context, tx *gorm.DB, tokenString, signatureData, ipAddress string) (*ConsumeResult, error) {
	str.logger.Debugf("Consume signing token \n")

	db := str.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var result *ConsumeResult
	txErr := str.withTx(db, func(tx2 *gorm.DB) error {
		token, err := str.GetByToken(ctx, tx2, tokenString)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := token.Validate(now); err != nil {
			return err
		}

		// Lock the contract row for the whole transaction. Consumptions on the
		// same contract serialize here, so when two last signers race the
		// second waits for the first to commit and then sees its party row as
		// signed when completion is re-evaluated below.
		contract, err := str.contract.GetByIdForUpdate(ctx, tx2, token.ContractID)
		if err != nil {
			return err
		}
		if contract.Status == constant.ContractStatusCompleted {
			return model.ErrContractCompleted
		}

		party := contract.PartyByRole(token.Party)
		if party == nil {
			return model.ErrUnknownParty
		}
		if party.Signed {
			return model.ErrPartyAlreadySigned
		}

		signature, err := str.signature.Create(ctx, tx2, &model.Signature{
			ContractID:    contract.ID,
			PartyEmail:    token.RecipientEmail,
			PartyRole:     token.Party,
			SignatureData: signatureData,
			IPAddress:     ipAddress,
			SignedAt:      now,
		})
		if err != nil {
			return err
		}

		res := tx2.WithContext(ctx).Model(&model.SigningToken{}).
			Where("id = ? AND used = ?", token.ID, false).
			Updates(map[string]any{
				"used":       true,
				"used_at":    now,
				"ip_address": ipAddress,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent consumption won the conditional update.
			return model.ErrSigningTokenUsed
		}

		marked, err := str.contract.MarkPartySigned(ctx, tx2, party.ID, signature.ID)
		if err != nil {
			return err
		}
		if !marked {
			return model.ErrPartyAlreadySigned
		}

		completed, err := str.contract.CompleteIfAllSigned(ctx, tx2, contract.ID)
		if err != nil {
			return err
		}

		refreshed, err := str.contract.GetById(ctx, tx2, contract.ID)
		if err != nil {
			return err
		}

		result = &ConsumeResult{
			Contract:  refreshed,
			Signature: signature,
			Completed: completed,
		}
		return nil
	})

	return result, txErr
}

// RevokeOutstanding revokes every unconsumed, unrevoked token for a contract.
// Pass an empty party to revoke across all parties. Returns how many tokens
// were revoked.
func (str SigningTokenRepository) RevokeOutstanding(ctx context.Context, tx *gorm.DB, contractId, party string) (int64, error) {
	str.logger.Debugf("Revoke outstanding signing tokens for contract: %s party: %q \n", contractId, party)

	db := str.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	now := time.Now()
	query := db.WithContext(ctx).Model(&model.SigningToken{}).
		Where("contract_id = ? AND used = ? AND revoked = ?", contractId, false, false)
	if party != "" {
		query = query.Where("party = ?", party)
	}

	res := query.Updates(map[string]any{
		"revoked":    true,
		"revoked_at": now,
		"updated_at": now,
	})
	if res.Error != nil {
		return 0, res.Error
	}

	return res.RowsAffected, nil
}

// DeleteExpired reclaims expired, never-consumed token rows. Storage hygiene
// only: the lazy Validate check already refuses expired tokens, so the
// sweeper lagging behind never loosens the expiry guarantee. Consumed rows
// are kept for audit.
func (str SigningTokenRepository) DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	str.logger.Debugf("Delete expired signing tokens older than %v \n", now)

	db := str.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	res := db.WithContext(ctx).Where("expires_at <= ? AND used = ?", now, false).Delete(&model.SigningToken{})
	if res.Error != nil {
		return 0, res.Error
	}

	return res.RowsAffected, nil
}
