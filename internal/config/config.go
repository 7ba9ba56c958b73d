package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv       = "BLOG_PUBLISHER_CONFIG"
	dotEnvPathEnv       = "ENV_PATH"
	logLevelEnv         = "LOG_LEVEL"
	logFileEnv          = "LOG_FILE"
	portEnv             = "PORT"
	llmProviderEnv      = "LLM_PROVIDER"
	llmModelEnv         = "LLM_MODEL"
	groqAPIKeyEnv       = "GROQ_API_KEY"
	geminiAPIKeyEnv     = "GEMINI_API_KEY"
	blogsDirEnv         = "BLOGS_DIR"
	publishBaseURLEnv   = "PUBLISH_BASE_URL"
	cycleIntervalEnv    = "CYCLE_INTERVAL"
	repoURLEnv          = "REPO_URL"
	githubTokenEnv      = "GITHUB_TOKEN"
	gitBranchEnv        = "GIT_BRANCH"
	xAPIKeyEnv          = "API_KEY"
	xAPISecretEnv       = "API_SECRET"
	xAccessTokenEnv     = "ACCESS_TOKEN"
	xAccessSecretEnv    = "ACCESS_TOKEN_SECRET"
	xBearerTokenEnv     = "BEARER_TOKEN"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv   = "TELEGRAM_CHAT_ID"
	natsURLEnv          = "NATS_URL"
	databaseDSNEnv      = "DATABASE_DSN"
	defaultDotEnvPath   = ".env"
	ProviderOpenAI      = "openai"
	ProviderGemini      = "gemini"
	defaultCycleSeconds = 60
)

// Config holds all settings; built once in main and passed to constructors.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Generator GeneratorConfig `yaml:"generator"`
	Storage   StorageConfig   `yaml:"storage"`
	Git       GitConfig       `yaml:"git"`
	Teaser    TeaserConfig    `yaml:"teaser"`
	X         XConfig         `yaml:"x"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	NATS      NATSConfig      `yaml:"nats"`
	Database  DatabaseConfig  `yaml:"database"`
	Topics    []string        `yaml:"topics"`
	Channels  []string        `yaml:"channels"`
}

// LoggingConfig sets the slog level and an optional rotating log file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port        string   `yaml:"port"`
	CorsOrigins []string `yaml:"corsOrigins"`
}

// SchedulerConfig defines the timer-driven cycle.
type SchedulerConfig struct {
	Disabled bool          `yaml:"disabled"`
	Interval time.Duration `yaml:"interval"`
}

// GeneratorConfig describes the text-generation provider and prompt.
type GeneratorConfig struct {
	Provider    string        `yaml:"provider"`
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	Prompt      string        `yaml:"prompt"`
}

// ResolvedModel returns the configured model or the provider's default.
func (g GeneratorConfig) ResolvedModel() string {
	if g.Model != "" {
		return g.Model
	}
	if g.Provider == ProviderGemini {
		return "gemini-1.5-flash"
	}
	return "llama-3.1-8b-instant"
}

// StorageConfig locates the local artifact directory and its public URL.
type StorageConfig struct {
	Root    string `yaml:"root"`
	BaseURL string `yaml:"baseUrl"`
}

// GitConfig configures the remote push.
type GitConfig struct {
	RepoURL   string        `yaml:"repoUrl"`
	Token     string        `yaml:"token"`
	Branch    string        `yaml:"branch"`
	UserName  string        `yaml:"userName"`
	UserEmail string        `yaml:"userEmail"`
	Timeout   time.Duration `yaml:"timeout"`
}

// TeaserConfig bounds the announcement text.
type TeaserConfig struct {
	MaxLength    int    `yaml:"maxLength"`
	ExcerptLimit int    `yaml:"excerptLimit"`
	Hashtags     string `yaml:"hashtags"`
}

// XConfig carries OAuth1 user-context credentials for the X API.
type XConfig struct {
	Endpoint          string `yaml:"endpoint"`
	APIKey            string `yaml:"apiKey"`
	APISecret         string `yaml:"apiSecret"`
	AccessToken       string `yaml:"accessToken"`
	AccessTokenSecret string `yaml:"accessTokenSecret"`
	BearerToken       string `yaml:"bearerToken"`
}

// Configured reports whether user-context credentials are present.
func (x XConfig) Configured() bool {
	return x.APIKey != "" && x.APISecret != "" && x.AccessToken != "" && x.AccessTokenSecret != ""
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// NATSConfig configures the artifact event channel.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// DatabaseConfig describes the optional Postgres ledger.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// Load reads .env, the YAML file (if any) and applies environment overrides.
// An explicit path takes precedence over BLOG_PUBLISHER_CONFIG.
func Load(path string) (Config, error) {
	loadDotEnv()

	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadDotEnv() {
	envPath := os.Getenv(dotEnvPathEnv)
	if envPath == "" {
		envPath = defaultDotEnvPath
	}
	if err := godotenv.Load(envPath); err != nil {
		slog.Debug("skipping .env", "path", envPath, "error", err)
	}
}

// Validate checks the invariants the pipeline relies on.
func (c Config) Validate() error {
	var errs []error

	if c.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("scheduler interval must be positive"))
	}
	if len(c.Topics) == 0 {
		errs = append(errs, errors.New("at least one topic is required"))
	}
	if strings.TrimSpace(c.Storage.Root) == "" {
		errs = append(errs, errors.New("storage root is required"))
	}
	if err := validatePort(c.Server.Port); err != nil {
		errs = append(errs, fmt.Errorf("invalid port: %w", err))
	}
	switch c.Generator.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown generator provider %q", c.Generator.Provider))
	}
	if c.Generator.Timeout <= 0 {
		errs = append(errs, errors.New("generator timeout must be positive"))
	}
	if c.Teaser.MaxLength <= 0 {
		errs = append(errs, errors.New("teaser max length must be positive"))
	}

	return errors.Join(errs...)
}

func validatePort(port string) error {
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return errors.New("port must be a number")
	}
	if portNum < 1 || portNum > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	setString(&c.Logging.Level, logLevelEnv)
	setString(&c.Logging.File, logFileEnv)
	setString(&c.Server.Port, portEnv)
	setString(&c.Generator.Provider, llmProviderEnv)
	setString(&c.Generator.Model, llmModelEnv)
	setString(&c.Storage.Root, blogsDirEnv)
	setString(&c.Storage.BaseURL, publishBaseURLEnv)
	setString(&c.Git.RepoURL, repoURLEnv)
	setString(&c.Git.Token, githubTokenEnv)
	setString(&c.Git.Branch, gitBranchEnv)
	setString(&c.X.APIKey, xAPIKeyEnv)
	setString(&c.X.APISecret, xAPISecretEnv)
	setString(&c.X.AccessToken, xAccessTokenEnv)
	setString(&c.X.AccessTokenSecret, xAccessSecretEnv)
	setString(&c.X.BearerToken, xBearerTokenEnv)
	setString(&c.Telegram.BotToken, telegramTokenEnv)
	setString(&c.Telegram.ChatID, telegramChatIDEnv)
	setString(&c.NATS.URL, natsURLEnv)
	setString(&c.Database.DSN, databaseDSNEnv)

	switch c.Generator.Provider {
	case ProviderGemini:
		setString(&c.Generator.APIKey, geminiAPIKeyEnv)
	default:
		setString(&c.Generator.APIKey, groqAPIKeyEnv)
	}

	if v := os.Getenv(cycleIntervalEnv); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("%s: %w", cycleIntervalEnv, err)
		}
		c.Scheduler.Interval = d
	}

	return nil
}

// parseInterval accepts a Go duration ("90s") or a bare number of seconds.
func parseInterval(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func mergeConfig(base, override Config) Config {
	mergeString(&base.Logging.Level, override.Logging.Level)
	mergeString(&base.Logging.File, override.Logging.File)
	mergeInt(&base.Logging.MaxSizeMB, override.Logging.MaxSizeMB)
	mergeInt(&base.Logging.MaxBackups, override.Logging.MaxBackups)
	mergeInt(&base.Logging.MaxAgeDays, override.Logging.MaxAgeDays)
	mergeString(&base.Server.Port, override.Server.Port)
	if len(override.Server.CorsOrigins) > 0 {
		base.Server.CorsOrigins = override.Server.CorsOrigins
	}

	if override.Scheduler.Interval != 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	base.Scheduler.Disabled = base.Scheduler.Disabled || override.Scheduler.Disabled

	mergeString(&base.Generator.Provider, override.Generator.Provider)
	mergeString(&base.Generator.Endpoint, override.Generator.Endpoint)
	mergeString(&base.Generator.Model, override.Generator.Model)
	mergeString(&base.Generator.APIKey, override.Generator.APIKey)
	mergeString(&base.Generator.Prompt, override.Generator.Prompt)
	if override.Generator.Temperature != 0 {
		base.Generator.Temperature = override.Generator.Temperature
	}
	if override.Generator.Timeout != 0 {
		base.Generator.Timeout = override.Generator.Timeout
	}

	mergeString(&base.Storage.Root, override.Storage.Root)
	mergeString(&base.Storage.BaseURL, override.Storage.BaseURL)

	mergeString(&base.Git.RepoURL, override.Git.RepoURL)
	mergeString(&base.Git.Token, override.Git.Token)
	mergeString(&base.Git.Branch, override.Git.Branch)
	mergeString(&base.Git.UserName, override.Git.UserName)
	mergeString(&base.Git.UserEmail, override.Git.UserEmail)
	if override.Git.Timeout != 0 {
		base.Git.Timeout = override.Git.Timeout
	}

	if override.Teaser.MaxLength != 0 {
		base.Teaser.MaxLength = override.Teaser.MaxLength
	}
	if override.Teaser.ExcerptLimit != 0 {
		base.Teaser.ExcerptLimit = override.Teaser.ExcerptLimit
	}
	mergeString(&base.Teaser.Hashtags, override.Teaser.Hashtags)

	mergeString(&base.X.Endpoint, override.X.Endpoint)
	mergeString(&base.X.APIKey, override.X.APIKey)
	mergeString(&base.X.APISecret, override.X.APISecret)
	mergeString(&base.X.AccessToken, override.X.AccessToken)
	mergeString(&base.X.AccessTokenSecret, override.X.AccessTokenSecret)
	mergeString(&base.X.BearerToken, override.X.BearerToken)

	mergeString(&base.Telegram.BotToken, override.Telegram.BotToken)
	mergeString(&base.Telegram.ChatID, override.Telegram.ChatID)

	mergeString(&base.NATS.URL, override.NATS.URL)
	mergeString(&base.NATS.Subject, override.NATS.Subject)

	mergeString(&base.Database.DSN, override.Database.DSN)

	if len(override.Topics) > 0 {
		base.Topics = override.Topics
	}
	if len(override.Channels) > 0 {
		base.Channels = override.Channels
	}

	return base
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Default returns the settings used when no file or environment overrides exist.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 30},
		Server:  ServerConfig{Port: "8080", CorsOrigins: []string{"*"}},
		Scheduler: SchedulerConfig{
			Interval: defaultCycleSeconds * time.Second,
		},
		Generator: GeneratorConfig{
			Provider:    ProviderOpenAI,
			Endpoint:    "https://api.groq.com/openai/v1/chat/completions",
			Temperature: 0.8,
			Timeout:     60 * time.Second,
			Prompt:      DefaultPrompt,
		},
		Storage: StorageConfig{
			Root:    "blogs",
			BaseURL: "",
		},
		Git: GitConfig{
			Branch:    "main",
			UserName:  "AutoBlogBot",
			UserEmail: "bot@autoblog.local",
			Timeout:   60 * time.Second,
		},
		Teaser: TeaserConfig{
			MaxLength:    280,
			ExcerptLimit: 200,
			Hashtags:     "#AI #DataScience #Python",
		},
		X: XConfig{
			Endpoint: "https://api.twitter.com/2/tweets",
		},
		NATS: NATSConfig{
			Subject: "blog.artifact.published",
		},
		Topics:   append([]string(nil), DefaultTopics...),
		Channels: []string{"x", "telegram", "nats"},
	}
}

// DefaultPrompt is rendered with text/template; .Topic is the only variable.
const DefaultPrompt = "# {{.Topic}}\n\n" +
	"Write a 500-word technical blog post in Markdown.\n" +
	"Include:\n" +
	"- Catchy intro\n" +
	"- 3-4 key points with bullet points\n" +
	"- Code snippet (Python)\n" +
	"- Conclusion with CTA\n" +
	"- Use ## for subheadings\n" +
	"- Friendly, expert tone"

// DefaultTopics is the static candidate mapping for timer-driven cycles.
var DefaultTopics = []string{
	"How LangChain is Revolutionizing AI Agents in 2025",
	"Top 5 Data Science Tools Every Analyst Must Know",
	"Building Real-Time Stock Prediction with Python and Groq",
	"Why Llama 3.1 is Beating GPT-4 in Speed and Cost",
	"MLOps in 2025: From Prototype to Production in 5 Minutes",
	"The Rise of Agentic AI: What It Means for Developers",
	"How to Fine-Tune LLMs on Your Laptop (No GPU Needed)",
	"Data Privacy in AI: GDPR, CCPA, and Beyond",
	"Vector Databases: The Future of Semantic Search",
	"AutoML in 2025: When Machines Build Better Models Than Humans",
}
