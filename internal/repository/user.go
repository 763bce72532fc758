package repository

import (
	"context"
	"errors"

	constant "github.com/inkwell-labs/inkwell/internal/constant"
	"github.com/inkwell-labs/inkwell/internal/model"
	"gorm.io/gorm"
)

type UserRepository struct {
	*baseRepository
}

func (ur UserRepository) GetById(ctx context.Context, tx *gorm.DB, userId string) (*model.User, error) {
	ur.logger.Debugf("Get user by id: %s \n", userId)

	db := ur.getDB(tx)
	var user *model.User

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.User{}).Where(&model.User{BaseModel: model.BaseModel{ID: userId}}).First(&user).Error; err != nil {
		return user, err
	}

	return user, nil
}

func (ur UserRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*model.User, error) {
	ur.logger.Debugf("Get user by email: %s \n", email)

	db := ur.getDB(tx)
	var user *model.User

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.User{}).Where(&model.User{Email: email}).First(&user).Error; err != nil {
		return user, err
	}

	return user, nil
}

func (ur *UserRepository) Create(ctx context.Context, tx *gorm.DB, newUser model.User) error {
	ur.logger.Debugf("Create user with email: %s \n", newUser.Email)

	db := ur.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.User{}).Create(&model.User{
		Email:      newUser.Email,
		FirstName:  newUser.FirstName,
		LastName:   newUser.LastName,
		ProfileURL: newUser.ProfileURL,
	}).Error; err != nil {
		return err
	}

	return nil
}

// CreateIfNotExist creates the user unless one with the same email exists.
func (ur *UserRepository) CreateIfNotExist(ctx context.Context, tx *gorm.DB, newUser model.User) error {
	ur.logger.Debugf("Create user if not exist with email: %s \n", newUser.Email)

	db := ur.getDB(tx)
	txErr := ur.withTx(db, func(tx *gorm.DB) error {
		_, err := ur.GetByEmail(ctx, tx, newUser.Email)
		if err == nil {
			// Already registered, nothing to do.
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return ur.Create(ctx, tx, newUser)
	})

	return txErr
}
