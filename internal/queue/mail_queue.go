package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/inkwell-labs/inkwell/internal/config"
	"github.com/inkwell-labs/inkwell/internal/mailer"
	"github.com/inkwell-labs/inkwell/internal/repository"
	"github.com/minio/minio-go/v7"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type MailConsumerContext struct {
	Config     *config.Config
	Logger     *zap.SugaredLogger
	Repository *repository.Repository
	Mailer     mailer.Client
	S3         *minio.Client
}

type MailJobPayload struct {
	ToEmail      string                  `json:"to_email"`
	TemplateFile mailer.MailTemplateFile `json:"template_file"`
	Data         json.RawMessage         `json:"data"`
	CreatedAt    string                  `json:"created_at"`
	Try          int                     `json:"try" default:"0"`
}

// ContractReadyJobData is the payload behind a signing-invitation email.
// TokenID lets the consumer re-check that the signing token is still
// outstanding: a token revoked between publish and delivery must not be
// mailed out.
type ContractReadyJobData struct {
	ContractID string `json:"contractId"`
	TokenID    string `json:"tokenId"`
	mailer.ContractReadyData
}

// ContractFinalizedJobData is the payload behind a fully-executed email. The
// consumer renders the finalized document from the contract id and attaches
// it.
type ContractFinalizedJobData struct {
	ContractID string `json:"contractId"`
	mailer.ContractFinalizedData
}

func NewMailJobPayload[T any](toEmail string, templateFile mailer.MailTemplateFile, data T) (MailJobPayload, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return MailJobPayload{}, fmt.Errorf("failed to marshal data: %w", err)
	}

	return MailJobPayload{
		ToEmail:      toEmail,
		TemplateFile: templateFile,
		Data:         dataBytes,
		Try:          0,
		CreatedAt:    time.Now().Format(time.RFC3339),
	}, nil
}

func NewContractReadyMailJob(toEmail string, data ContractReadyJobData) (MailJobPayload, error) {
	return NewMailJobPayload(toEmail, mailer.TemplateContractReady, data)
}

func NewContractFinalizedMailJob(toEmail string, data ContractFinalizedJobData) (MailJobPayload, error) {
	return NewMailJobPayload(toEmail, mailer.TemplateContractFinalized, data)
}

// MailDispatcher is the producer side of the notification pipeline. Publish
// failures surface to the caller; for signing flows they are reported but
// never roll back an already-committed signature.
type MailDispatcher struct {
	rabbitMQ *RabbitMQ
	logger   *zap.SugaredLogger
}

func NewMailDispatcher(rabbitMQ *RabbitMQ, logger *zap.SugaredLogger) *MailDispatcher {
	return &MailDispatcher{rabbitMQ: rabbitMQ, logger: logger}
}

func (d *MailDispatcher) publish(payload MailJobPayload, err error) error {
	if err != nil {
		return err
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail job payload: %w", err)
	}

	if err := d.rabbitMQ.Publish(QueueMail, payloadBytes); err != nil {
		return fmt.Errorf("failed to publish mail job: %w", err)
	}

	d.logger.Debugf("Published mail job for recipient: %s, template: %s", payload.ToEmail, payload.TemplateFile)
	return nil
}

func (d *MailDispatcher) DispatchContractReady(toEmail string, data ContractReadyJobData) error {
	payload, err := NewContractReadyMailJob(toEmail, data)
	return d.publish(payload, err)
}

func (d *MailDispatcher) DispatchContractFinalized(toEmail string, data ContractFinalizedJobData) error {
	payload, err := NewContractFinalizedMailJob(toEmail, data)
	return d.publish(payload, err)
}

type MailJobHandler func(ctx context.Context, jobPayload MailJobPayload, app *MailConsumerContext) (bool, error)

func (r *RabbitMQ) ConsumeMailJob(ctx context.Context, handler MailJobHandler, maxWorker int, app *MailConsumerContext) error {
	msgs, err := r.Consume(QueueMail)
	if err != nil {
		return fmt.Errorf("failed to start consuming mail jobs: %w", err)
	}

	for i := range maxWorker {
		go func(workerNumber int) {
			runMailWorker(ctx, r, workerNumber, msgs, handler, app)
		}(i + 1)
	}

	return nil
}

func runMailWorker(ctx context.Context, rabbitMQ *RabbitMQ, workerNumber int, msgs <-chan amqp091.Delivery, handler MailJobHandler, app *MailConsumerContext) {
	for {
		select {
		case <-ctx.Done():
			log.Printf("[Mail Worker %d] Shutting down", workerNumber)
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Printf("[Mail Worker %d] Message channel closed", workerNumber)
				return
			}
			processMailJob(ctx, rabbitMQ, workerNumber, msg, handler, app)
		}
	}
}

func processMailJob(ctx context.Context, rabbitMQ *RabbitMQ, workerNumber int, msg amqp091.Delivery, handler MailJobHandler, app *MailConsumerContext) {
	if msg.Body == nil {
		log.Printf("[Mail Worker %d] Received empty message body", workerNumber)
		rabbitMQ.Nack(msg, false)
		return
	}

	var jobPayload MailJobPayload
	if err := json.Unmarshal(msg.Body, &jobPayload); err != nil {
		log.Printf("[Mail Worker %d] Invalid payload: %v", workerNumber, err)
		rabbitMQ.Nack(msg, false)
		return
	}

	workerPrefix := fmt.Sprintf("[Mail Worker %d: Retry %d]", workerNumber, jobPayload.Try)

	shouldRequeue, err := handler(ctx, jobPayload, app)
	if err != nil {
		log.Printf("%s Handler error processing mail job for recipient: %s, template: %s: %v",
			workerPrefix, jobPayload.ToEmail, jobPayload.TemplateFile, err)

		if !shouldRequeue || jobPayload.Try >= MAX_QUEUE_RETRY {
			log.Printf("%s Not requeuing mail job for recipient: %s, template: %s after error (retry: %d, shouldRequeue: %v)",
				workerPrefix, jobPayload.ToEmail, jobPayload.TemplateFile, jobPayload.Try, shouldRequeue)
			rabbitMQ.Nack(msg, false)
			return
		}

		requeueMailJob(rabbitMQ, workerPrefix, msg, jobPayload)
		return
	}

	log.Printf("%s Successfully processed mail job for recipient: %s, template: %s",
		workerPrefix, jobPayload.ToEmail, jobPayload.TemplateFile)
	rabbitMQ.Ack(msg)
}

func requeueMailJob(rabbitMQ *RabbitMQ, workerPrefix string, msg amqp091.Delivery, jobPayload MailJobPayload) {
	jobPayload.Try++
	payloadBytes, err := json.Marshal(jobPayload)
	if err != nil {
		log.Printf("%s Failed to marshal mail payload for requeue: %v", workerPrefix, err)
		rabbitMQ.Nack(msg, false)
		return
	}

	if err := rabbitMQ.Publish(QueueMail, payloadBytes); err != nil {
		log.Printf("%s Failed to requeue mail job for recipient: %s, template: %s: %v",
			workerPrefix, jobPayload.ToEmail, jobPayload.TemplateFile, err)
		rabbitMQ.Nack(msg, false)
		return
	}

	log.Printf("%s Requeued mail job for recipient: %s, template: %s",
		workerPrefix, jobPayload.ToEmail, jobPayload.TemplateFile)
	rabbitMQ.Ack(msg)
}
