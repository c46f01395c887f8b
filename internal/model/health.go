package model

// RelayHealth is a read-only diagnostic snapshot of the relay.
type RelayHealth struct {
	MessageCount int `json:"messageCount"`
	InboxCount   int `json:"inboxCount"`
	PendingCount int `json:"pendingCount"`
}

// Health
// @Description Диагностика сервиса.
type Health struct {
	MessageCount  int     `example:"12"  json:"messageCount"`  // Сообщений в хранилище
	InboxCount    int     `example:"3"   json:"inboxCount"`    // Непустых inbox
	PendingCount  int     `example:"10"  json:"pendingCount"`  // Ожидающих доставки
	UserCount     int     `example:"5"   json:"userCount"`     // Зарегистрированных пользователей
	UptimeSeconds float64 `example:"120" json:"uptimeSeconds"` // Время работы
} // @Name Health
