package repository

import (
	"context"
	"fmt"
	"time"

	constant "github.com/inkwell-labs/inkwell/internal/constant"
	"github.com/inkwell-labs/inkwell/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContractRepository struct {
	*baseRepository
}

func (cr ContractRepository) Create(ctx context.Context, tx *gorm.DB, contract *model.Contract) (*model.Contract, error) {
	cr.logger.Debugf("Create contract with title: %s \n", contract.Title)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	contract.Status = constant.ContractStatusDraft

	if err := db.WithContext(ctx).Create(contract).Error; err != nil {
		return contract, err
	}

	return contract, nil
}

func (cr ContractRepository) GetById(ctx context.Context, tx *gorm.DB, contractId string) (*model.Contract, error) {
	cr.logger.Debugf("Get contract by id: %s \n", contractId)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var contract model.Contract
	if err := db.WithContext(ctx).Model(&model.Contract{}).Preload("Parties").Where(&model.Contract{
		BaseModel: model.BaseModel{ID: contractId},
	}).First(&contract).Error; err != nil {
		return nil, err
	}

	return &contract, nil
}

// GetByIdForUpdate loads the contract while holding a row lock for the rest of
// the transaction. Callers that sign and then re-evaluate completion go through
// this so consumptions on the same contract serialize, otherwise two last
// signers each read the other's party row before it commits and neither sees
// the contract as fully signed.
func (cr ContractRepository) GetByIdForUpdate(ctx context.Context, tx *gorm.DB, contractId string) (*model.Contract, error) {
	cr.logger.Debugf("Get contract by id for update: %s \n", contractId)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var contract model.Contract
	if err := db.WithContext(ctx).Model(&model.Contract{}).Clauses(clause.Locking{Strength: "UPDATE"}).Where(&model.Contract{
		BaseModel: model.BaseModel{ID: contractId},
	}).First(&contract).Error; err != nil {
		return nil, err
	}

	// Parties are fetched after the lock is held so they reflect whatever the
	// previous holder committed.
	if err := db.WithContext(ctx).Model(&model.Party{}).Where("contract_id = ?", contractId).Find(&contract.Parties).Error; err != nil {
		return nil, err
	}

	return &contract, nil
}

func (cr ContractRepository) GetByCreator(ctx context.Context, tx *gorm.DB, userId string, search string, status []constant.ContractStatus, page, pageSize uint) ([]model.Contract, int64, error) {
	cr.logger.Debugf("Get contracts for creator: %s \n", userId)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := db.WithContext(ctx).Model(&model.Contract{}).Where("created_by = ?", userId)
	if search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}
	if len(status) > 0 {
		query = query.Where("status IN ?", status)
	}

	var contracts []model.Contract
	if err := query.Preload("Parties").Order("created_at DESC").Offset(int((page - 1) * pageSize)).Limit(int(pageSize)).Find(&contracts).Error; err != nil {
		return nil, 0, err
	}

	var totalContracts int64
	if err := query.Count(&totalContracts).Error; err != nil {
		return nil, 0, err
	}

	return contracts, totalContracts, nil
}

// UpdateDraft replaces the editable fields of a contract. Only drafts can be
// edited, and the party set is frozen once any signature exists.
func (cr ContractRepository) UpdateDraft(ctx context.Context, tx *gorm.DB, contractId string, title, contractType string, blocks model.BlockList, parties []model.Party) (*model.Contract, error) {
	cr.logger.Debugf("Update draft contract: %s \n", contractId)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var updated *model.Contract
	txErr := cr.withTx(db, func(tx2 *gorm.DB) error {
		contract, err := cr.GetById(ctx, tx2, contractId)
		if err != nil {
			return err
		}

		if contract.Status != constant.ContractStatusDraft {
			return model.ErrContractNotDraft
		}
		if contract.HasAnySignature() {
			return model.ErrPartiesLocked
		}

		if err := tx2.WithContext(ctx).Model(&model.Contract{}).Where("id = ?", contractId).Updates(map[string]any{
			"title":  title,
			"type":   contractType,
			"blocks": blocks,
		}).Error; err != nil {
			return err
		}

		// Replace the party set wholesale; drafts carry no signatures so
		// nothing references the old rows.
		if err := tx2.WithContext(ctx).Where("contract_id = ?", contractId).Delete(&model.Party{}).Error; err != nil {
			return err
		}
		for i := range parties {
			parties[i].ID = ""
			parties[i].ContractID = contractId
			parties[i].Signed = false
			parties[i].SignatureID = nil
		}
		if len(parties) > 0 {
			if err := tx2.WithContext(ctx).Create(&parties).Error; err != nil {
				return err
			}
		}

		updated, err = cr.GetById(ctx, tx2, contractId)
		return err
	})

	return updated, txErr
}

// MarkPending flips a contract from draft to pending. The status guard in the
// WHERE clause makes the transition atomic: the send action wins at most once.
func (cr ContractRepository) MarkPending(ctx context.Context, tx *gorm.DB, contractId string) (bool, error) {
	cr.logger.Debugf("Mark contract pending: %s \n", contractId)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	res := db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ? AND status = ?", contractId, constant.ContractStatusDraft).
		Updates(map[string]any{
			"status":     constant.ContractStatusPending,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}

// MarkPartySigned records a party's signature reference. Guarded on
// signed=false so two racing consumptions for the same party cannot both win.
func (cr ContractRepository) MarkPartySigned(ctx context.Context, tx *gorm.DB, partyId, signatureId string) (bool, error) {
	cr.logger.Debugf("Mark party signed: %s with signature: %s \n", partyId, signatureId)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	res := db.WithContext(ctx).Model(&model.Party{}).
		Where("id = ? AND signed = ?", partyId, false).
		Updates(map[string]any{
			"signed":       true,
			"signature_id": signatureId,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}

// CompleteIfAllSigned re-reads the party list and, when every party has
// signed, attempts the pending -> completed transition. The expected-prior
// -status guard keeps the transition single-shot, but the party re-read only
// sees committed rows. Callers that just signed must hold the contract row
// lock (GetByIdForUpdate) in the same transaction so a racing last signer
// cannot read a stale unsigned row and skip the transition.
func (cr ContractRepository) CompleteIfAllSigned(ctx context.Context, tx *gorm.DB, contractId string) (bool, error) {
	cr.logger.Debugf("Re-evaluate completion for contract: %s \n", contractId)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	// Read-after-write: the fold runs over the latest persisted rows, never a
	// snapshot captured before the party update.
	contract, err := cr.GetById(ctx, db, contractId)
	if err != nil {
		return false, err
	}

	if !contract.AllPartiesSigned() {
		return false, nil
	}

	res := db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ? AND status = ?", contractId, constant.ContractStatusPending).
		Updates(map[string]any{
			"status":     constant.ContractStatusCompleted,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}

// ReconcileStatus recomputes the status from the party list. Used on reads to
// converge after a consumption transaction that failed between its final
// steps; recomputation is idempotent.
func (cr ContractRepository) ReconcileStatus(ctx context.Context, tx *gorm.DB, contract *model.Contract) error {
	next := contract.NextStatus()
	if next == contract.Status {
		return nil
	}

	cr.logger.Debugf("Reconcile contract %s status %s -> %s \n", contract.ID, contract.Status, next)

	transitioned, err := cr.CompleteIfAllSigned(ctx, tx, contract.ID)
	if err != nil {
		return fmt.Errorf("failed to reconcile contract status: %w", err)
	}
	if transitioned {
		contract.Status = next
	}

	return nil
}
