package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/sojenai/jenai-dashboard/config"
	"github.com/sojenai/jenai-dashboard/server"
)

const TRUE = "true"

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file from current directory")
	} else {
		log.Printf("Note: .env file not found or could not be loaded: %v", err)
	}

	// Load configuration
	cfg := config.DefaultConfig()

	configPath := flag.String("config", "", "Path to JSON config file")
	flag.Parse()

	if *configPath != "" {
		loadConfigFromFile(*configPath, cfg)
	}

	// Override configuration with environment variables
	loadConfigFromEnv(cfg)

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN})
		if err != nil {
			log.Printf("Warning: failed to initialize Sentry: %v", err)
		} else {
			log.Println("Sentry error reporting enabled")
		}
	}

	var srv *server.Server
	var err error
	if uiEmbedded {
		srv, err = server.NewServerWithEmbedded(cfg, uiFiles)
		if err != nil {
			log.Fatalf("Failed to create server with embedded UI: %v", err)
		}
		log.Println("Using embedded UI files (production mode)")
	} else {
		srv, err = server.NewServer(cfg)
		if err != nil {
			log.Fatalf("Failed to create server: %v", err)
		}
		log.Printf("Using file system UI at %s (development mode)", cfg.UIPath)
	}

	// Start server with error handling
	srv.StartWithErrorHandling()
}

// loadConfigFromFile loads configuration from a JSON file
func loadConfigFromFile(path string, cfg *config.Config) {
	// #nosec G304 - Config file path is controlled by application, not user input
	file, err := os.Open(path)
	if err != nil {
		log.Printf("Failed to open config file: %v", err)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Printf("Failed to close config file: %v", err)
		}
	}()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		log.Printf("Failed to decode config file: %v", err)
	}
}

// loadConfigFromEnv loads configuration from environment variables
func loadConfigFromEnv(cfg *config.Config) {
	loadApplicationConfig(cfg)
	loadVoiceConfig(cfg)
	loadDatabaseConfig(cfg)
	loadLoggingConfig(cfg)
}

// loadApplicationConfig loads application configuration from environment variables
func loadApplicationConfig(cfg *config.Config) {
	if apiBase := os.Getenv("SOJEN_API_BASE"); apiBase != "" {
		cfg.APIBase = apiBase
	}

	if port := os.Getenv("DASHBOARD_PORT"); port != "" {
		cfg.DashboardPort = port
	}

	if uiPath := os.Getenv("UI_PATH"); uiPath != "" {
		cfg.UIPath = uiPath
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		cfg.SentryDSN = dsn
	}

	if timeout := os.Getenv("INFER_TIMEOUT_SECONDS"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			cfg.InferTimeoutSeconds = t
		}
	}

	if timeout := os.Getenv("MITIGATE_TIMEOUT_SECONDS"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			cfg.MitigateTimeoutSeconds = t
		}
	}

	if timeout := os.Getenv("HEALTH_TIMEOUT_SECONDS"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			cfg.HealthTimeoutSeconds = t
		}
	}

	if rps := os.Getenv("RATE_LIMIT_RPS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimit.RequestsPerSecond = v
		}
	}

	if enabled := os.Getenv("RATE_LIMIT_ENABLED"); enabled != "" {
		cfg.RateLimit.Enabled = enabled == TRUE
	}
}

// loadVoiceConfig loads voice synthesis configuration from environment variables
func loadVoiceConfig(cfg *config.Config) {
	if enabled := os.Getenv("VOICE_ENABLED"); enabled != "" {
		cfg.Voice.Enabled = enabled == TRUE
	}

	if endpoint := os.Getenv("VOICE_ENDPOINT"); endpoint != "" {
		cfg.Voice.Endpoint = endpoint
	}

	if lang := os.Getenv("VOICE_LANGUAGE"); lang != "" {
		cfg.Voice.Language = lang
	}
}

// loadDatabaseConfig loads database configuration from environment variables
func loadDatabaseConfig(cfg *config.Config) {
	if dbEnabled := os.Getenv("DB_ENABLED"); dbEnabled != "" {
		cfg.Database.Enabled = dbEnabled == TRUE
	}

	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}

	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Database.Port = p
		}
	}

	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Database.Database = dbName
	}

	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.Username = user
	}

	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}

	if sslMode := os.Getenv("DB_SSL_MODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}
}

// loadLoggingConfig loads logging configuration from environment variables
func loadLoggingConfig(cfg *config.Config) {
	if logRequests := os.Getenv("LOG_REQUESTS"); logRequests != "" {
		cfg.Logging.LogRequests = logRequests == TRUE
	}

	if logResponses := os.Getenv("LOG_RESPONSES"); logResponses != "" {
		cfg.Logging.LogResponses = logResponses == TRUE
	}

	if logVerbose := os.Getenv("LOG_VERBOSE"); logVerbose != "" {
		cfg.Logging.LogVerbose = logVerbose == TRUE
	}
}
