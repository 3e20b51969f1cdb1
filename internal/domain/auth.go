package domain

const RoleAdmin = "Admin"

// Caller — уже аутентифицированный вызывающий. Собирается auth-слоем
// из проверенного JWT и прокидывается в контексте запроса.
// Сервисный слой доверяет этим полям как факту.
type Caller struct {
	UserID string
	Roles  map[string]bool // развернутые роли проекта Zitadel, напр. {"Admin": true}
}

func (c Caller) IsAdmin() bool {
	return c.Roles[RoleAdmin]
}
