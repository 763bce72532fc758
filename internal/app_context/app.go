package appcontext

import (
	"github.com/inkwell-labs/inkwell/internal/auth"
	"github.com/inkwell-labs/inkwell/internal/config"
	"github.com/inkwell-labs/inkwell/internal/mailer"
	"github.com/inkwell-labs/inkwell/internal/queue"
	"github.com/inkwell-labs/inkwell/internal/repository"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Application contains core dependencies for the app.
type Application struct {
	// Config holds application settings provided from .env file.
	Config *config.Config

	Logger *zap.SugaredLogger

	// Repository provides access to data storage operations.
	Repository *repository.Repository

	// Mailer handles direct email sends; transactional contract mail goes
	// through the Dispatcher instead.
	Mailer mailer.Client

	// Dispatcher publishes contract notification jobs onto the mail queue.
	Dispatcher *queue.MailDispatcher

	// JWTService manages JWT operations for authentication such as generate, verify, refresh token.
	JWTService auth.JWTInterface

	S3 *minio.Client
}
