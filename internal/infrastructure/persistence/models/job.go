package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
)

// MarketplaceJobModel is the persistence model for marketplace_jobs
type MarketplaceJobModel struct {
	UserModel
	Marketplace   marketplace.Marketplace `gorm:"type:varchar(20);not null;index:idx_jobs_queue,priority:2"`
	Action        marketplace.Action      `gorm:"type:varchar(30);not null"`
	ProductID     *uuid.UUID              `gorm:"type:uuid;index"`
	BatchID       *uuid.UUID              `gorm:"type:uuid;index"`
	Status        job.Status              `gorm:"type:varchar(20);not null;index:idx_jobs_queue,priority:1"`
	Priority      int                     `gorm:"not null;default:3;index:idx_jobs_queue,priority:3"`
	RetryCount    int                     `gorm:"not null;default:0"`
	MaxRetries    int                     `gorm:"not null;default:3"`
	InputData     string                  `gorm:"type:jsonb;not null;default:'{}'"`
	ResultData    *string                 `gorm:"type:jsonb"`
	ErrorMessage  string                  `gorm:"type:text"`
	StartedAt     *time.Time
	CompletedAt   *time.Time
	ExpiresAt     *time.Time `gorm:"index"`
	NextAttemptAt *time.Time
}

// TableName returns the table name for GORM
func (MarketplaceJobModel) TableName() string {
	return "marketplace_jobs"
}

// ToDomain converts the persistence model to a domain job
func (m *MarketplaceJobModel) ToDomain() *job.MarketplaceJob {
	return &job.MarketplaceJob{
		BaseEntity:    m.BaseModel.ToDomain(),
		UserID:        m.UserID,
		Marketplace:   m.Marketplace,
		Action:        m.Action,
		ProductID:     m.ProductID,
		BatchID:       m.BatchID,
		Status:        m.Status,
		Priority:      marketplace.Priority(m.Priority),
		RetryCount:    m.RetryCount,
		MaxRetries:    m.MaxRetries,
		InputData:     decodeJSON[job.Payload](m.InputData),
		ResultData:    decodeJSONPtr[job.Payload](m.ResultData),
		ErrorMessage:  m.ErrorMessage,
		StartedAt:     m.StartedAt,
		CompletedAt:   m.CompletedAt,
		ExpiresAt:     m.ExpiresAt,
		NextAttemptAt: m.NextAttemptAt,
	}
}

// FromDomain populates the persistence model from a domain job
func (m *MarketplaceJobModel) FromDomain(j *job.MarketplaceJob) {
	m.FromDomainBaseEntity(j.BaseEntity)
	m.UserID = j.UserID
	m.Marketplace = j.Marketplace
	m.Action = j.Action
	m.ProductID = j.ProductID
	m.BatchID = j.BatchID
	m.Status = j.Status
	m.Priority = int(j.Priority)
	m.RetryCount = j.RetryCount
	m.MaxRetries = j.MaxRetries
	m.InputData = encodeJSON(j.InputData, "{}")
	m.ResultData = nil
	if j.ResultData != nil {
		r := encodeJSON(j.ResultData, "{}")
		m.ResultData = &r
	}
	m.ErrorMessage = j.ErrorMessage
	m.StartedAt = j.StartedAt
	m.CompletedAt = j.CompletedAt
	m.ExpiresAt = j.ExpiresAt
	m.NextAttemptAt = j.NextAttemptAt
}

// MarketplaceJobModelFromDomain creates a persistence model from a domain job
func MarketplaceJobModelFromDomain(j *job.MarketplaceJob) *MarketplaceJobModel {
	m := &MarketplaceJobModel{}
	m.FromDomain(j)
	return m
}

// BatchJobModel is the persistence model for batch_jobs
type BatchJobModel struct {
	UserModel
	BatchID        string                  `gorm:"column:batch_id;type:varchar(80);not null;uniqueIndex"`
	Marketplace    marketplace.Marketplace `gorm:"type:varchar(20);not null"`
	Action         marketplace.Action      `gorm:"type:varchar(30);not null"`
	Priority       int                     `gorm:"not null;default:3"`
	Status         job.BatchStatus         `gorm:"type:varchar(20);not null;index"`
	TotalCount     int                     `gorm:"not null;default:0"`
	CompletedCount int                     `gorm:"not null;default:0"`
	FailedCount    int                     `gorm:"not null;default:0"`
	CancelledCount int                     `gorm:"not null;default:0"`
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// TableName returns the table name for GORM
func (BatchJobModel) TableName() string {
	return "batch_jobs"
}

// ToDomain converts the persistence model to a domain batch
func (m *BatchJobModel) ToDomain() *job.BatchJob {
	return &job.BatchJob{
		BaseEntity:     m.BaseModel.ToDomain(),
		BatchID:        m.BatchID,
		UserID:         m.UserID,
		Marketplace:    m.Marketplace,
		Action:         m.Action,
		Priority:       marketplace.Priority(m.Priority),
		Status:         m.Status,
		TotalCount:     m.TotalCount,
		CompletedCount: m.CompletedCount,
		FailedCount:    m.FailedCount,
		CancelledCount: m.CancelledCount,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain batch
func (m *BatchJobModel) FromDomain(b *job.BatchJob) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.UserID = b.UserID
	m.BatchID = b.BatchID
	m.Marketplace = b.Marketplace
	m.Action = b.Action
	m.Priority = int(b.Priority)
	m.Status = b.Status
	m.TotalCount = b.TotalCount
	m.CompletedCount = b.CompletedCount
	m.FailedCount = b.FailedCount
	m.CancelledCount = b.CancelledCount
	m.StartedAt = b.StartedAt
	m.CompletedAt = b.CompletedAt
}

// BatchJobModelFromDomain creates a persistence model from a domain batch
func BatchJobModelFromDomain(b *job.BatchJob) *BatchJobModel {
	m := &BatchJobModel{}
	m.FromDomain(b)
	return m
}
