package schema

import "time"

// Mint is one PKP mint row; a token is stored once per (blockchain, network)
type Mint struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	Blockchain string    `gorm:"type:text;not null;uniqueIndex:idx_pkp_mints_token,priority:1"`
	Network    string    `gorm:"type:text;not null;uniqueIndex:idx_pkp_mints_token,priority:2"`
	TokenID    string    `gorm:"column:token_id;type:text;not null;uniqueIndex:idx_pkp_mints_token,priority:3"`
	EthAddress string    `gorm:"column:eth_address;type:text;not null;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (Mint) TableName() string {
	return "pkp_mints"
}

// Models lists every table managed by the indexer, in migration order
func Models() []interface{} {
	return []interface{}{&Checkpoint{}, &Mint{}}
}
