// Package models содержит доменные сущности task-сервиса.
package models

import "time"

// User — учётная запись пользователя (MongoDB, коллекция users).
// Важно:
//   - ID — ObjectID MongoDB в hex-представлении; наружу отдаётся как string.
//   - Email и Username уникальны (уникальные индексы в адаптере хранилища).
//   - PasswordHash — bcrypt-хэш; в JSON не сериализуется никогда.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
