package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Security SecurityConfig `json:"security"`
	Chain    ChainConfig    `json:"chain"`
	Storage  StorageConfig  `json:"storage"`
	Registry RegistryConfig `json:"registry"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	FrontendURL  string        `json:"frontend_url"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
}

// SecurityConfig holds JWT settings
type SecurityConfig struct {
	JWTSecret string        `json:"jwt_secret"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

// ChainConfig describes the (mocked) blockchain network
type ChainConfig struct {
	Network          string `json:"network"`
	ChainID          string `json:"chain_id"`
	RegistryContract string `json:"registry_contract"`
	CreditContract   string `json:"credit_contract"`
}

// StorageConfig describes evidence file storage
type StorageConfig struct {
	S3Bucket    string `json:"s3_bucket"`
	IPFSGateway string `json:"ipfs_gateway"`
	UseMockS3   bool   `json:"use_mock_s3"`
}

// RegistryConfig controls the public registry read-side
type RegistryConfig struct {
	StatsRefreshSpec string `json:"stats_refresh_spec"` // cron spec
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        3001,
			FrontendURL: "http://localhost:3000",
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "blue_carbon_registry",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MaxLifetime:    5 * time.Minute,
		},
		Security: SecurityConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Chain: ChainConfig{
			Network: "mumbai",
			ChainID: "80001",
		},
		Storage: StorageConfig{
			S3Bucket:    "blue-carbon-evidence",
			IPFSGateway: "https://ipfs.io/ipfs",
			UseMockS3:   true,
		},
		Registry: RegistryConfig{
			StatsRefreshSpec: "@every 5m",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	if config.Security.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if frontend := os.Getenv("FRONTEND_URL"); frontend != "" {
		config.Server.FrontendURL = frontend
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DATABASE_PORT"); dbPort != "" {
		if p, err := strconv.Atoi(dbPort); err == nil {
			config.Database.Port = p
		}
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Security.JWTSecret = secret
	}
	if network := os.Getenv("BLOCKCHAIN_NETWORK"); network != "" {
		config.Chain.Network = network
	}
	if chainID := os.Getenv("CHAIN_ID"); chainID != "" {
		config.Chain.ChainID = chainID
	}
	if contract := os.Getenv("CARBON_REGISTRY_CONTRACT"); contract != "" {
		config.Chain.RegistryContract = contract
	}
	if contract := os.Getenv("CARBON_CREDIT_CONTRACT"); contract != "" {
		config.Chain.CreditContract = contract
	}
	if bucket := os.Getenv("EVIDENCE_S3_BUCKET"); bucket != "" {
		config.Storage.S3Bucket = bucket
		config.Storage.UseMockS3 = false
	}
	if gateway := os.Getenv("IPFS_GATEWAY"); gateway != "" {
		config.Storage.IPFSGateway = gateway
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
