package config

import (
	"encoding/json"
	"os"

	"github.com/akihokurino/works-server/internal/flagx"
	"github.com/akihokurino/works-server/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Duration fields accept "30s" or
// integer nanoseconds via timex.Duration. Only keys present in the file
// override the target.
type JsonConfig struct {
	EndpointAddrHTTP      *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC      *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	LogLevel              *string         `json:"log_level"`
	TokenEncryptionKey    *string         `json:"token_encryption_key"`
	MisocaClientID        *string         `json:"misoca_client_id"`
	MisocaClientSecret    *string         `json:"misoca_client_secret"`
	MisocaRedirectURI     *string         `json:"misoca_redirect_uri"`
	MisocaBaseURL         *string         `json:"misoca_base_url"`
	MisocaTimeout         *timex.Duration `json:"misoca_timeout"`
	S3RootUser            *string         `json:"s3_root_user"`
	S3RootPassword        *string         `json:"s3_root_password"`
	S3Bucket              *string         `json:"s3_bucket"`
	S3Region              *string         `json:"s3_region"`
	S3BaseEndpoint        *string         `json:"s3_base_endpoint"`
	InvoicePDFURLValidity *timex.Duration `json:"invoice_pdf_url_validity"`
	LoaderWait            *timex.Duration `json:"loader_wait"`
	LoaderMaxBatch        *int            `json:"loader_max_batch"`
	SyncPerPage           *int            `json:"sync_per_page"`
	HTTPReadTimeout       *timex.Duration `json:"http_read_timeout"`
	HTTPWriteTimeout      *timex.Duration `json:"http_write_timeout"`
}

// parseJson loads the file named by -c/-config, if any, into config.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.TokenEncryptionKey, c.TokenEncryptionKey)
	setString(&config.MisocaClientID, c.MisocaClientID)
	setString(&config.MisocaClientSecret, c.MisocaClientSecret)
	setString(&config.MisocaRedirectURI, c.MisocaRedirectURI)
	setString(&config.MisocaBaseURL, c.MisocaBaseURL)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.MisocaTimeout != nil {
		config.MisocaTimeout = c.MisocaTimeout.Duration
	}
	if c.InvoicePDFURLValidity != nil {
		config.InvoicePDFURLValidity = c.InvoicePDFURLValidity.Duration
	}
	if c.LoaderWait != nil {
		config.LoaderWait = c.LoaderWait.Duration
	}
	if c.HTTPReadTimeout != nil {
		config.HTTPReadTimeout = c.HTTPReadTimeout.Duration
	}
	if c.HTTPWriteTimeout != nil {
		config.HTTPWriteTimeout = c.HTTPWriteTimeout.Duration
	}
	if c.LoaderMaxBatch != nil {
		config.LoaderMaxBatch = *c.LoaderMaxBatch
	}
	if c.SyncPerPage != nil {
		config.SyncPerPage = *c.SyncPerPage
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
