package domain

import "time"

// TransactionStatus 交易狀態
type TransactionStatus string

const (
	TransactionStatusInitiated   TransactionStatus = "INITIE"
	TransactionStatusIrrevocable TransactionStatus = "IRREVOCABLE"
	TransactionStatusRejected    TransactionStatus = "REJETE"
	TransactionStatusCancelled   TransactionStatus = "ANNULE"
)

// IsValid 是否為已知狀態
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusInitiated, TransactionStatusIrrevocable,
		TransactionStatusRejected, TransactionStatusCancelled:
		return true
	}
	return false
}

const (
	// DefaultMotif 未提供 motif 時使用
	DefaultMotif = "Transfert intra-comptes"
	// MaxMotifLength motif 最大字元數
	MaxMotifLength = 140
)

// Transaction 轉帳紀錄，只會新增不會修改
type Transaction struct {
	TxID          string            `json:"txId" yaml:"txId"`
	Status        TransactionStatus `json:"statut" yaml:"statut"`
	CreatedAt     time.Time         `json:"dateCreation" yaml:"dateCreation"`
	DebitAccount  string            `json:"compteDebiteur" yaml:"compteDebiteur"`
	CreditAccount string            `json:"compteCrediteur" yaml:"compteCrediteur"`
	Amount        int64             `json:"montant" yaml:"montant"`
	Motif         string            `json:"motif" yaml:"motif"`
}

// TransferRequest 轉帳請求
type TransferRequest struct {
	DebitAccount  string `json:"compteDebiteur"`
	CreditAccount string `json:"compteCrediteur"`
	Amount        int64  `json:"montant"`
	Motif         string `json:"motif,omitempty"`
}

// MotifOrDefault motif 為空時回傳預設值
func (r TransferRequest) MotifOrDefault() string {
	if r.Motif == "" {
		return DefaultMotif
	}
	return r.Motif
}

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultSort     = "-dateCreation"
)

// TransactionFilter 交易查詢條件
type TransactionFilter struct {
	Page   int
	Size   int
	Sort   string
	Status TransactionStatus
}

// WithDefaults 補上未設定的欄位 (Page/Size 為 0 視為未設定)
func (f TransactionFilter) WithDefaults() TransactionFilter {
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Size == 0 {
		f.Size = DefaultPageSize
	}
	if f.Sort == "" {
		f.Sort = DefaultSort
	}
	return f
}

// Validate 檢查分頁與狀態參數
func (f TransactionFilter) Validate() error {
	var violations []Violation
	if f.Page < 1 {
		violations = append(violations, Violation{Field: "page", Reason: "page doit être supérieur ou égal à 1"})
	}
	if f.Size < 1 || f.Size > MaxPageSize {
		violations = append(violations, Violation{Field: "size", Reason: "size doit être compris entre 1 et 100"})
	}
	if f.Status != "" && !f.Status.IsValid() {
		violations = append(violations, Violation{Field: "statut", Reason: "statut invalide: " + string(f.Status)})
	}
	if len(violations) > 0 {
		return NewValidationErrors(violations)
	}
	return nil
}

// PageMeta 分頁資訊，沒有相鄰頁時 Next/Prev 為 nil，JSON 中省略該欄位
type PageMeta struct {
	Total int  `json:"total"`
	Page  int  `json:"page"`
	Size  int  `json:"size"`
	Next  *int `json:"next,omitempty"`
	Prev  *int `json:"prev,omitempty"`
}

// TransactionPage 查詢結果
type TransactionPage struct {
	Data []Transaction `json:"data"`
	Meta PageMeta      `json:"meta"`
}
