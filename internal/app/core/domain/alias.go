package domain

import "time"

// AliasType 別名類型
type AliasType string

const (
	AliasTypeSHID AliasType = "SHID"
	AliasTypeMCOD AliasType = "MCOD"
)

// MaxAliasesPerAccount 每個帳戶可持有的別名上限 (業務規則)
const MaxAliasesPerAccount = 20

// Alias 支付別名，以 Key 對應到帳戶
type Alias struct {
	Key       string    `json:"cle" yaml:"cle"`
	Type      AliasType `json:"type" yaml:"type"`
	Account   string    `json:"compte" yaml:"compte"`
	CreatedAt time.Time `json:"dateCreation" yaml:"dateCreation"`
}
