package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/inkwell-labs/inkwell/internal/auth"
	"github.com/inkwell-labs/inkwell/internal/config"
	"github.com/inkwell-labs/inkwell/internal/constant"
	"github.com/inkwell-labs/inkwell/internal/database"
	"github.com/inkwell-labs/inkwell/internal/env"
	filestorage "github.com/inkwell-labs/inkwell/internal/file_storage"
	"github.com/inkwell-labs/inkwell/internal/mailer"
	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/queue"
	"github.com/inkwell-labs/inkwell/internal/repository"
	"github.com/inkwell-labs/inkwell/internal/util"
	"github.com/inkwell-labs/inkwell/pkg/contractdoc"
	"gorm.io/gorm"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

const (
	MAX_WORKER = 3
)

// renderer is shared across workers; it only holds loaded fonts and paths.
var renderer *contractdoc.Renderer

func main() {
	cfg := config.GetConfig()
	logger := util.NewLogger(cfg.ENV)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		logger.Panic(err)
	}
	defer sqlDb.Close()
	logger.Info("Database connected \n")

	s3, err := filestorage.NewMinioClient(&cfg.Minio)
	if err != nil {
		logger.Error("Error connecting to minio")
		logger.Panic(err)
	}

	renderer, err = contractdoc.NewRenderer(contractdoc.NewDefaultConfig())
	if err != nil {
		logger.Panicf("Failed to create document renderer: %v", err)
	}

	mail := mailer.NewGmailMailer(cfg.Mail.GMAIL_USERNAME, cfg.Mail.GMAIL_APP_PASSWORD, logger)
	jwtService := auth.NewJwt(cfg.Auth,
		logger)
	repo := repository.NewRepository(db, logger, jwtService, s3)
	app := queue.MailConsumerContext{
		Config:     &cfg,
		Repository: repo,
		Logger:     logger,
		Mailer:     mail,
		S3:         s3,
	}

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.GetConnectionString())
	if err != nil {
		logger.Panic("Error connecting to RabbitMQ: ", err)
	}
	logger.Info("RabbitMQ connected \n")
	defer func() {
		if err := rabbitMQ.Close(); err != nil {
			logger.Errorf("Failed to close RabbitMQ connection: %v", err)
		}
	}()

	ctx := context.Background()

	if err := rabbitMQ.ConsumeMailJob(ctx, mailJobHandler, MAX_WORKER, &app); err != nil {
		logger.Fatalf("Failed to consume mail job: %v", err)
	}

	logger.Infof("Started consuming mail job")

	// Block forever to keep the consumer running
	select {}
}

func mailJobHandler(ctx context.Context, jobPayload queue.MailJobPayload, app *queue.MailConsumerContext) (bool, error) {
	switch jobPayload.TemplateFile {
	case mailer.TemplateContractReady:
		return handleContractReady(ctx, jobPayload, app)
	case mailer.TemplateContractFinalized:
		return handleContractFinalized(ctx, jobPayload, app)
	default:
		return false, fmt.Errorf("unsupported template: %s", jobPayload.TemplateFile)
	}
}

// handleContractReady sends a signing invitation. The token is re-checked at
// delivery time: a token revoked or consumed between publish and delivery
// must not be mailed out.
func handleContractReady(ctx context.Context, jobPayload queue.MailJobPayload, app *queue.MailConsumerContext) (bool, error) {
	var data queue.ContractReadyJobData
	if err := json.Unmarshal(jobPayload.Data, &data); err != nil {
		return false, fmt.Errorf("failed to unmarshal ContractReadyJobData: %w", err)
	}

	token, err := app.Repository.SigningToken.GetById(ctx, nil, data.TokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("signing token not found: %s", data.TokenID)
		}

		return true, fmt.Errorf("failed to get signing token: %w", err)
	}

	if err := token.Validate(time.Now()); err != nil {
		return false, fmt.Errorf("signing token no longer deliverable: %w", err)
	}

	if !strings.EqualFold(token.RecipientEmail, jobPayload.ToEmail) {
		return false, fmt.Errorf("email %s does not match signing token recipient %s", jobPayload.ToEmail, token.RecipientEmail)
	}

	status, err := app.Mailer.Send(jobPayload.TemplateFile, jobPayload.ToEmail, data.ContractReadyData)
	if err != nil {
		return true, fmt.Errorf("failed to send email: %w", err)
	}

	if status != http.StatusOK {
		return true, fmt.Errorf("email sending failed with status: %d", status)
	}

	return true, nil
}

// handleContractFinalized renders the fully-executed document, archives it in
// object storage, and mails it out as an attachment.
func handleContractFinalized(ctx context.Context, jobPayload queue.MailJobPayload, app *queue.MailConsumerContext) (bool, error) {
	var data queue.ContractFinalizedJobData
	if err := json.Unmarshal(jobPayload.Data, &data); err != nil {
		return false, fmt.Errorf("failed to unmarshal ContractFinalizedJobData: %w", err)
	}

	contract, err := app.Repository.Contract.GetById(ctx, nil, data.ContractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("contract not found: %s", data.ContractID)
		}

		return true, fmt.Errorf("failed to get contract: %w", err)
	}

	if contract.Status != constant.ContractStatusCompleted {
		return false, fmt.Errorf("contract %s is not completed, refusing to send finalized notification", contract.ID)
	}

	signatures, err := app.Repository.Signature.GetByContractId(ctx, nil, contract.ID)
	if err != nil {
		return true, fmt.Errorf("failed to get signatures: %w", err)
	}

	pdf, err := renderer.Render(buildDocument(contract, signatures, data.VerifyURL))
	if err != nil {
		return true, fmt.Errorf("failed to render finalized document: %w", err)
	}

	// Archive the rendered document; a storage outage should not hold the
	// email hostage, the recipient still gets the attachment.
	if err := util.EnsureBucket(ctx, app.S3, app.Config.Minio.BUCKET); err != nil {
		app.Logger.Errorf("Failed to ensure bucket: %v", err)
	} else if _, err := util.UploadBytesToS3(ctx, pdf, "finalized.pdf", &util.FileUploadOptions{
		DirectoryPath: fmt.Sprintf("contracts/%s", contract.ID),
		Bucket:        app.Config.Minio.BUCKET,
		ContentType:   "application/pdf",
		S3:            app.S3,
	}); err != nil {
		app.Logger.Errorf("Failed to archive finalized document for contract %s: %v", contract.ID, err)
	}

	status, err := app.Mailer.SendWithAttachments(jobPayload.TemplateFile, jobPayload.ToEmail, data.ContractFinalizedData, []mailer.Attachment{
		{
			Filename:    fmt.Sprintf("%s.pdf", contract.Title),
			ContentType: "application/pdf",
			Data:        pdf,
		},
	})
	if err != nil {
		return true, fmt.Errorf("failed to send email: %w", err)
	}

	if status != http.StatusOK {
		return true, fmt.Errorf("email sending failed with status: %d", status)
	}

	return true, nil
}

func buildDocument(contract *model.Contract, signatures []model.Signature, verifyURL string) contractdoc.Document {
	blocks := make([]string, 0, len(contract.Blocks))
	for _, b := range contract.Blocks {
		blocks = append(blocks, b.Text)
	}

	signatureByRole := make(map[string]model.Signature, len(signatures))
	for _, sig := range signatures {
		signatureByRole[sig.PartyRole] = sig
	}

	signatories := make([]contractdoc.Signatory, 0, len(contract.Parties))
	for _, p := range contract.Parties {
		signatory := contractdoc.Signatory{
			Name: p.Name,
			Role: p.Role,
		}

		if sig, ok := signatureByRole[p.Role]; ok {
			signatory.SignedAt = sig.SignedAt.Format("Jan 2, 2006 at 3:04 PM MST")
			// Drawn signatures arrive as base64 png; undecodable data falls
			// back to a caption-only entry.
			if decoded, err := base64.StdEncoding.DecodeString(sig.SignatureData); err == nil {
				signatory.SignaturePNG = decoded
			}
		}

		signatories = append(signatories, signatory)
	}

	return contractdoc.Document{
		ID:          contract.ID,
		Title:       contract.Title,
		Type:        contract.Type,
		Blocks:      blocks,
		Signatories: signatories,
		VerifyURL:   verifyURL,
		EmbedQR:     verifyURL != "",
	}
}
