package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	// Database is optional; when host is empty the service runs without
	// run history persistence.
	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	// Minio is optional; when endpoint is empty artifacts are not uploaded
	// and download URLs stay empty.
	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Auth struct {
		AllowedUsers []string `yaml:"allowedUsers"`
	} `yaml:"auth"`

	App struct {
		EnvFile      string `yaml:"envFile"`
		SecretsFile  string `yaml:"secretsFile"`
		SettingsDir  string `yaml:"settingsDir"`
		InputFile    string `yaml:"inputFile"`
		ExpectedFile string `yaml:"expectedFile"`
	} `yaml:"app"`
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.App.EnvFile == "" {
		c.App.EnvFile = ".env"
	}
	if c.App.SecretsFile == "" {
		c.App.SecretsFile = "secrets.yaml"
	}
	if c.App.SettingsDir == "" {
		c.App.SettingsDir = ".settings"
	}
	if c.App.InputFile == "" {
		c.App.InputFile = "twitter/deafult_Input.json"
	}
	if c.App.ExpectedFile == "" {
		c.App.ExpectedFile = "twitter/expected_output.json"
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
