// Package role содержит чистую логику определения роли пользователя
// по его email через статический список администраторов.
package role

import "github.com/sidequest-campus/gatekeeper/internal/models"

// Resolver определяет роль пользователя по email.
type Resolver struct {
	admins map[string]struct{}
}

// New создает Resolver для заданного списка email администраторов.
// Сравнение точное, с учетом регистра.
func New(adminEmails []string) *Resolver {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		admins[email] = struct{}{}
	}
	return &Resolver{admins: admins}
}

// Resolve возвращает роль для данного email. Функция чистая: результат
// зависит только от аргумента.
func (r *Resolver) Resolve(email string) models.Role {
	if _, ok := r.admins[email]; ok {
		return models.RoleAdmin
	}
	return models.RoleStandard
}
