package config

type StoreConfig interface {
	GetStoreBackend() string
	GetRedisURL() string
	GetDatabaseURL() string
}

const (
	StoreBackendMemory   = "memory"
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
)

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetStoreBackend() string {
	return GetEnv("STORE_BACKEND", StoreBackendMemory)
}

func (Store) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}

func (Store) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}
