package domain

import "time"

// DefaultCurrency 預設幣別 (西非法郎)
const DefaultCurrency = "XOF"

// Account 帳戶，載入後唯讀，交易不會異動餘額
type Account struct {
	// Number: 帳號 (CIC + 數字)
	Number string `json:"numero" yaml:"numero"`
	// Balance: 餘額，以最小貨幣單位表示
	Balance int64 `json:"solde" yaml:"solde"`
	// Currency: 幣別
	Currency string `json:"devise" yaml:"devise"`
	// ConsultedAt: 查詢時間，由查詢當下填入
	ConsultedAt time.Time `json:"dateConsultation" yaml:"-"`
}

// NewAccount 建立帳戶，幣別為空時使用 XOF
func NewAccount(number string, balance int64, currency string) Account {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Account{
		Number:   number,
		Balance:  balance,
		Currency: currency,
	}
}

// HasSufficientFunds 餘額等於金額也視為足夠
func (a Account) HasSufficientFunds(amount int64) bool {
	return a.Balance >= amount
}
