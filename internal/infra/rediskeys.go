package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "aprq"
)

// GetUserInfoKey — ключ кэша развернутой личности пользователя.
// Каждая запись несет собственный TTL, инвалидация только по истечению.
func GetUserInfoKey(userID string) string {
	return fmt.Sprintf("%s:user_info:%s", RedisNamespace, userID)
}
