// Package config loads blogfront's configuration.
//
// Sources are layered, later ones winning:
//
//  1. built-in defaults
//  2. blogfront.json in the working directory (optional)
//  3. a .env file (optional, loaded with godotenv)
//  4. process environment variables
//  5. command-line flags, applied by the caller
//
// # Configuration File Structure
//
//	{
//	  "server":   {"address": ":3000", "shutdownTimeout": "30s"},
//	  "upstream": {"baseURL": "https://frontend-case-api.sbdev.nl", "timeout": "15s"},
//	  "staging":  {"backend": "disk", "dir": "/var/tmp/blogfront", "maxAge": "1h"},
//	  "metrics":  {"path": "/metrics"},
//	  "log":      {"level": "info", "format": "text"}
//	}
//
// The API token is normally supplied as API_TOKEN in the environment or
// .env rather than in the JSON file.
//
// # Environment Variables
//
//	API_TOKEN                        upstream.token
//	UPSTREAM_URL                     upstream.baseURL
//	BLOGFRONT_ADDR                   server.address
//	BLOGFRONT_TOKEN_HEADER           upstream.tokenHeader
//	BLOGFRONT_UPSTREAM_TIMEOUT       upstream.timeout
//	BLOGFRONT_STAGING_BACKEND        staging.backend (disk or s3)
//	BLOGFRONT_STAGING_DIR            staging.dir
//	BLOGFRONT_STAGING_MAX_AGE        staging.maxAge
//	BLOGFRONT_SWEEP_INTERVAL         staging.sweepInterval
//	BLOGFRONT_S3_BUCKET              staging.s3.bucket
//	BLOGFRONT_S3_PREFIX              staging.s3.prefix
//	BLOGFRONT_S3_REGION              staging.s3.region
//	BLOGFRONT_S3_ENDPOINT            staging.s3.endpoint
//	BLOGFRONT_S3_ACCESS_KEY_ID       staging.s3.accessKeyID
//	BLOGFRONT_S3_SECRET_ACCESS_KEY   staging.s3.secretAccessKey
//	BLOGFRONT_METRICS_DISABLED       metrics.disabled
//	BLOGFRONT_FEED_DISABLED          feed.disabled
//	BLOGFRONT_LOG_LEVEL              log.level
//	BLOGFRONT_LOG_FORMAT             log.format
package config
