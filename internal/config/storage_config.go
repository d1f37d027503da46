package config

const (
	storageBackendVar = "STORAGE_BACKEND"
	redisAddrVar      = "REDIS_ADDR"
	redisPasswordVar  = "REDIS_PASSWORD"
	redisDBVar        = "REDIS_DB"
	redisKeyPrefixVar = "REDIS_KEY_PREFIX"

	StorageBackendMemory = "memory"
	StorageBackendRedis  = "redis"
)

type StorageConfig interface {
	GetStorageBackend() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetStorageBackend() string {
	return GetEnv(storageBackendVar, StorageBackendMemory)
}

func (Storage) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv(redisPasswordVar, "")
}

func (Storage) GetRedisDB() int {
	return GetEnvInt(redisDBVar, 0)
}

func (Storage) GetRedisKeyPrefix() string {
	return GetEnv(redisKeyPrefixVar, "oauth20:")
}
