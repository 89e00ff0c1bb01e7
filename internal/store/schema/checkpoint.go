package schema

import "time"

// Checkpoint stores the last processed block (inclusive) of a (blockchain, network) pair.
// The composite primary key keeps at most one row per pair.
type Checkpoint struct {
	Blockchain string    `gorm:"primaryKey;type:text"`
	Network    string    `gorm:"primaryKey;type:text"`
	EndBlock   uint64    `gorm:"type:bigint;not null"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (Checkpoint) TableName() string {
	return "pkp_checkpoints"
}
