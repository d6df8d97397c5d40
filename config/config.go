package config

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host   string `yaml:"host" json:"host"`
	Port   int    `yaml:"port" json:"port"`
	Secret string `yaml:"secret" json:"secret"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// ProviderConfig configures the third-party nutrition API client.
type ProviderConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	Timeout   int    `yaml:"timeout" json:"timeout"` // seconds
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// WritebackConfig configures the detached import worker pool.
type WritebackConfig struct {
	Workers int `yaml:"workers" json:"workers"`
	Timeout int `yaml:"timeout" json:"timeout"` // seconds per import
}

type MailConfig struct {
	Enable bool   `yaml:"enable" json:"enable"`
	Host   string `yaml:"host" json:"host"`
	Port   int    `yaml:"port" json:"port"`
	User   string `yaml:"user" json:"user"`
	Passwd string `yaml:"passwd" json:"passwd"`
	From   string `yaml:"from" json:"from"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System    SysConfig       `yaml:"system" json:"system"`
	Web       WebConfig       `yaml:"web" json:"web"`
	Database  DBConfig        `yaml:"database" json:"database"`
	Provider  ProviderConfig  `yaml:"provider" json:"provider"`
	Writeback WritebackConfig `yaml:"writeback" json:"writeback"`
	Mail      MailConfig      `yaml:"mail" json:"mail"`
	Logger    LogConfig       `yaml:"logger" json:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) InitDirs() error {
	for _, dir := range []string{c.GetLogDir(), c.GetDataDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "kalorio",
		Location: "Europe/Berlin",
		Workdir:  "/var/kalorio",
		Debug:    true,
	},
	Web: WebConfig{
		Host:   "0.0.0.0",
		Port:   1816,
		Secret: "9b6de5cc-kalorio-0338-4f07-b785",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "kalorio",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  100,
		IdleConn: 10,
	},
	Provider: ProviderConfig{
		BaseURL:   "https://world.openfoodfacts.org",
		Timeout:   5,
		UserAgent: "kalorio-server",
	},
	Writeback: WritebackConfig{
		Workers: 8,
		Timeout: 10,
	},
	Mail: MailConfig{
		Enable: false,
		Port:   465,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/kalorio/logs/kalorio.log",
	},
}

func setEnvValue(name string, val *string) {
	if evalue, ok := os.LookupEnv(name); ok {
		*val = evalue
	}
}

func setEnvIntValue(name string, val *int) {
	if evalue, ok := os.LookupEnv(name); ok {
		*val = cast.ToInt(evalue)
	}
}

func setEnvBoolValue(name string, val *bool) {
	if evalue, ok := os.LookupEnv(name); ok {
		*val = cast.ToBool(evalue)
	}
}

// LoadConfig reads the YAML config file and applies KALORIO_* environment
// overrides on top. A missing file yields the built-in defaults.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			cfg = new(AppConfig)
			if err := yaml.Unmarshal(data, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "config parse error: %v\n", err)
				cfg = DefaultAppConfig
			}
		}
	}

	setEnvValue("KALORIO_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvBoolValue("KALORIO_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("KALORIO_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("KALORIO_WEB_PORT", &cfg.Web.Port)
	setEnvValue("KALORIO_WEB_SECRET", &cfg.Web.Secret)

	setEnvValue("KALORIO_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("KALORIO_DB_PORT", &cfg.Database.Port)
	setEnvValue("KALORIO_DB_NAME", &cfg.Database.Name)
	setEnvValue("KALORIO_DB_USER", &cfg.Database.User)
	setEnvValue("KALORIO_DB_PWD", &cfg.Database.Passwd)
	setEnvBoolValue("KALORIO_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("KALORIO_PROVIDER_BASEURL", &cfg.Provider.BaseURL)
	setEnvIntValue("KALORIO_PROVIDER_TIMEOUT", &cfg.Provider.Timeout)

	setEnvValue("KALORIO_SMTP_HOST", &cfg.Mail.Host)
	setEnvIntValue("KALORIO_SMTP_PORT", &cfg.Mail.Port)
	setEnvValue("KALORIO_SMTP_USER", &cfg.Mail.User)
	setEnvValue("KALORIO_SMTP_PWD", &cfg.Mail.Passwd)

	return cfg
}
