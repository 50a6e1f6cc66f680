package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/EthanQC/collab/internal/domain/entity"
	"github.com/EthanQC/collab/internal/ports/out"
)

// FileLockModel GORM模型
type FileLockModel struct {
	SessionID  string     `gorm:"column:session_id;type:varchar(36);primaryKey"`
	FileName   string     `gorm:"column:file_name;type:varchar(512);primaryKey"`
	LockType   string     `gorm:"column:lock_type;type:varchar(16);not null"`
	HolderID   string     `gorm:"column:holder_id;type:varchar(64);not null"`
	AcquiredAt time.Time  `gorm:"column:acquired_at;not null"`
	ExpiresAt  *time.Time `gorm:"column:expires_at"`
}

func (FileLockModel) TableName() string {
	return "file_locks"
}

// LockRepositoryMySQL MySQL文件锁仓储实现
type LockRepositoryMySQL struct {
	db *gorm.DB
}

func NewLockRepositoryMySQL(db *gorm.DB) out.LockRepository {
	return &LockRepositoryMySQL{db: db}
}

func (r *LockRepositoryMySQL) Create(ctx context.Context, lock *entity.FileLock) error {
	model := &FileLockModel{
		SessionID:  lock.SessionID,
		FileName:   lock.FileName,
		LockType:   string(lock.Type),
		HolderID:   lock.HolderID,
		AcquiredAt: lock.AcquiredAt,
		ExpiresAt:  lock.ExpiresAt,
	}
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *LockRepositoryMySQL) Remove(ctx context.Context, sessionID, fileName string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ? AND file_name = ?", sessionID, fileName).
		Delete(&FileLockModel{}).Error
}
