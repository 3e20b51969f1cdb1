package domain

// UserInfo — отображаемая личность пользователя, развернутая из Zitadel ID.
// Не персистится: либо живой ответ провайдера, либо запись из кэша.
type UserInfo struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// UnknownUser — заглушка на случай, когда провайдер не смог отдать личность.
// Списки никогда не падают целиком из-за одного неразрешимого ID.
func UnknownUser(userID string) UserInfo {
	return UserInfo{
		UserID: userID,
		Name:   "Unknown User",
		Email:  "unknown@email.com",
	}
}
