// Package models содержит структуры данных, которыми обмениваются
// компоненты гейткипера: сессия, строка профиля, конфигурация версии
// приложения и итоговое решение о доступе.
package models

// Session представляет аутентифицированную сессию пользователя.
// Создается при входе, заменяется при обновлении токена и
// уничтожается (nil) при выходе.
type Session struct {
	UserUID     string `json:"user_uid"`     // Идентификатор пользователя
	Email       string `json:"email"`        // Email пользователя
	AccessToken string `json:"access_token"` // Исходный токен сессии
}

// SessionEventType тип события аутентификации.
type SessionEventType string

const (
	// SessionSignedIn — пользователь вошел в систему.
	SessionSignedIn SessionEventType = "SIGNED_IN"
	// SessionSignedOut — пользователь вышел из системы.
	SessionSignedOut SessionEventType = "SIGNED_OUT"
	// SessionTokenRefreshed — токен сессии обновлен.
	SessionTokenRefreshed SessionEventType = "TOKEN_REFRESHED"
)

// SessionEvent событие аутентификации, доставляемое бекендом.
// Для SIGNED_IN и TOKEN_REFRESHED поле AccessToken содержит новый токен.
type SessionEvent struct {
	Type        SessionEventType `json:"type"`
	AccessToken string           `json:"access_token,omitempty"`
}

// ProfileRow строка профиля пользователя, как она хранится в базе
// и как она приходит в realtime-событиях об изменении.
type ProfileRow struct {
	UserUID         string  `json:"user_uid" validate:"required"`
	FullName        *string `json:"full_name"`
	Phone           *string `json:"phone"`
	IDCardURL       *string `json:"id_card_url"`
	IsEmailVerified bool    `json:"is_email_verified"`
}

// Complete возвращает true, если профиль заполнен: указаны имя, телефон,
// ссылка на документ и подтвержден email. Отсутствие любого поля делает
// профиль неполным.
func (p *ProfileRow) Complete() bool {
	return p.FullName != nil && *p.FullName != "" &&
		p.Phone != nil && *p.Phone != "" &&
		p.IDCardURL != nil && *p.IDCardURL != "" &&
		p.IsEmailVerified
}

// AppVersionConfig единственная запись конфигурации версий приложения.
type AppVersionConfig struct {
	LatestVersion string `json:"latest_version"`
	UpdateURL     string `json:"update_url"`
}

// VersionStatus результат проверки версии приложения.
type VersionStatus struct {
	Outdated  bool   `json:"outdated"`
	UpdateURL string `json:"update_url,omitempty"`
}

// Role роль пользователя, выводимая из email.
type Role string

const (
	// RoleAdmin — администратор из статического списка.
	RoleAdmin Role = "admin"
	// RoleStandard — обычный пользователь.
	RoleStandard Role = "standard"
)

// Mode режим приложения, видимый пользователю. В каждый момент
// времени активен ровно один режим.
type Mode string

const (
	// ModeLoading — начальное состояние, пока не разрешена сессия и профиль.
	ModeLoading Mode = "loading"
	// ModeUpdateRequired — версия приложения устарела, работа заблокирована.
	ModeUpdateRequired Mode = "update_required"
	// ModeUnauthenticated — сессии нет, показывается вход.
	ModeUnauthenticated Mode = "unauthenticated"
	// ModeAuthenticated — сессия есть, показывается основное приложение.
	ModeAuthenticated Mode = "authenticated"
)

// AccessDecision итоговое решение гейткипера. Производное значение:
// пересчитывается при каждом изменении входов и никогда не кешируется
// между изменениями.
type AccessDecision struct {
	Mode            Mode   `json:"mode"`
	UpdateURL       string `json:"update_url,omitempty"`       // только для update_required
	Role            Role   `json:"role,omitempty"`             // только для authenticated
	ProfileComplete bool   `json:"profile_complete"`
	UserUID         string `json:"user_uid,omitempty"`         // только для authenticated
	UserEmail       string `json:"user_email,omitempty"`       // только для authenticated
}
