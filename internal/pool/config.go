package pool

// Config contains candidate pool settings. An empty DBPath selects the
// in-memory source.
type Config struct {
	DBPath string `env:"POOL_DB_PATH"`
}
