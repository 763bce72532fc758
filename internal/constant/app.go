package constant

import "time"

const (
	REQUEST_SUCCESSFUL   = "Request successful"
	REQUEST_UNSUCCESSFUL = "Request unsuccessful"

	QUERY_TIMEOUT_DURATION = 5 * time.Second

	DefaultPageSize uint = 10
	MaxPageSize     uint = 100
)

const (
	JWT_TYPE_ACCESS  = "access"
	JWT_TYPE_REFRESH = "refresh"
)

const (
	OAUTH_PROVIDER_GOOGLE = "google"
)
