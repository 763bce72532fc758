package repository

import (
	"github.com/inkwell-labs/inkwell/internal/auth"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type baseRepository struct {
	db         *gorm.DB
	logger     *zap.SugaredLogger
	jwtService auth.JWTInterface
	s3         *minio.Client
}

type Repository struct {
	// DB can be used for transaction. Example usage:
	// tx := r.DB.Begin()
	// defer tx.Commit()
	// Then pass tx to the repository function. and use tx.Rollback() if error occurred
	DB            *gorm.DB
	User          *UserRepository
	JWT           *JWTRepository
	OAuthProvider *OAuthProviderRepository
	Contract      *ContractRepository
	SigningToken  *SigningTokenRepository
	Signature     *SignatureRepository
}

func newBaseRepository(db *gorm.DB, logger *zap.SugaredLogger, jwtService auth.JWTInterface, s3 *minio.Client) *baseRepository {
	return &baseRepository{db: db, logger: logger, jwtService: jwtService, s3: s3}
}

func NewRepository(db *gorm.DB, logger *zap.SugaredLogger, jwtService auth.JWTInterface, s3 *minio.Client) *Repository {
	br := newBaseRepository(db, logger, jwtService, s3)
	_userRepo := &UserRepository{baseRepository: br}
	_contractRepo := &ContractRepository{baseRepository: br}
	_signatureRepo := &SignatureRepository{baseRepository: br}

	return &Repository{
		DB:            db,
		User:          _userRepo,
		JWT:           &JWTRepository{baseRepository: br, user: _userRepo},
		OAuthProvider: &OAuthProviderRepository{baseRepository: br},
		Contract:      _contractRepo,
		Signature:     _signatureRepo,
		SigningToken:  &SigningTokenRepository{baseRepository: br, contract: _contractRepo, signature: _signatureRepo},
	}
}

// GORM performs write (create/update/delete) operations inside a transaction
// by default; this helper groups multiple repository calls into one.
// Docs: https://gorm.io/docs/transactions.html
func (b baseRepository) withTx(db *gorm.DB, fn func(*gorm.DB) error) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})

	if err != nil {
		b.logger.Debugf("withTx Transaction error: %v", err)
	}

	return err
}

func (b baseRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}

	return b.db
}
