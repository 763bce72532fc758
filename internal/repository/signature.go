package repository

import (
	"context"

	constant "github.com/inkwell-labs/inkwell/internal/constant"
	"github.com/inkwell-labs/inkwell/internal/model"
	"gorm.io/gorm"
)

type SignatureRepository struct {
	*baseRepository
}

func (sr SignatureRepository) Create(ctx context.Context, tx *gorm.DB, signature *model.Signature) (*model.Signature, error) {
	sr.logger.Debugf("Create signature for contract: %s party: %s \n", signature.ContractID, signature.PartyRole)

	db := sr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.Signature{}).Create(&signature).Error; err != nil {
		return signature, err
	}

	return signature, nil
}

func (sr SignatureRepository) GetById(ctx context.Context, tx *gorm.DB, signatureId string) (*model.Signature, error) {
	sr.logger.Debugf("Get signature by id: %s \n", signatureId)

	db := sr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var signature model.Signature
	if err := db.WithContext(ctx).Model(&model.Signature{}).Where(&model.Signature{
		BaseModel: model.BaseModel{ID: signatureId},
	}).First(&signature).Error; err != nil {
		return nil, err
	}

	return &signature, nil
}

func (sr SignatureRepository) GetByContractId(ctx context.Context, tx *gorm.DB, contractId string) ([]model.Signature, error) {
	sr.logger.Debugf("Get signatures for contract: %s \n", contractId)

	db := sr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var signatures []model.Signature
	if err := db.WithContext(ctx).Model(&model.Signature{}).Where("contract_id = ?", contractId).
		Order("signed_at ASC").Find(&signatures).Error; err != nil {
		return nil, err
	}

	return signatures, nil
}
