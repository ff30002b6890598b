package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// UserModel is a BaseModel scoped to a Stoflow user
type UserModel struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func encodeJSON(v any, empty string) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return empty
	}
	return string(b)
}

func decodeJSON[T any](s string) T {
	var v T
	if s == "" {
		return v
	}
	_ = json.Unmarshal([]byte(s), &v)
	return v
}

func decodeJSONPtr[T any](s *string) T {
	if s == nil {
		var v T
		return v
	}
	return decodeJSON[T](*s)
}
