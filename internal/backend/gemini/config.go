package gemini

// Config contains Gemini backend configuration. The API key is passed as a
// query parameter, which is how the Generative Language API authenticates.
type Config struct {
	APIKey    string `env:"GEMINI_API_KEY"`
	BaseURL   string `env:"GEMINI_BASE_URL"    envDefault:"https://generativelanguage.googleapis.com"`
	Model     string `env:"GEMINI_MODEL"       envDefault:"gemini-1.5-pro"`
	Timeout   int    `env:"GEMINI_TIMEOUT"     envDefault:"60"`
	MaxTokens int    `env:"GEMINI_MAX_TOKENS"  envDefault:"2048"`
}
