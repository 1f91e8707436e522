package anthropic

// Config contains Anthropic backend configuration.
type Config struct {
	APIKey     string `env:"ANTHROPIC_API_KEY"`
	BaseURL    string `env:"ANTHROPIC_BASE_URL"    envDefault:"https://api.anthropic.com"`
	APIVersion string `env:"ANTHROPIC_API_VERSION" envDefault:"2023-06-01"`
	Model      string `env:"ANTHROPIC_MODEL"       envDefault:"claude-3-5-sonnet-20241022"`
	Timeout    int    `env:"ANTHROPIC_TIMEOUT"     envDefault:"60"`
	MaxTokens  int    `env:"ANTHROPIC_MAX_TOKENS"  envDefault:"2048"`
}
