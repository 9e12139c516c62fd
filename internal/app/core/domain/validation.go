package domain

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

var (
	accountNumberPattern = regexp.MustCompile(`^CIC[0-9]+$`)
	uuidV4Pattern        = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
)

// 驗證錯誤訊息 (對外回傳，保持法文)
const (
	ReasonInvalidDebitAccount  = "compteDebiteur invalide"
	ReasonInvalidCreditAccount = "compteCrediteur invalide"
	ReasonAmountNotPositive    = "montant doit être positif"
	ReasonMotifTooLong         = "motif trop long (max 140 caractères)"
	ReasonInvalidAccountNumber = "Numéro de compte invalide"
	ReasonInvalidAliasKey      = "Clé d'alias invalide"
)

// IsValidAccountNumber 帳號格式: CIC 後接至少一位數字
func IsValidAccountNumber(s string) bool {
	return accountNumberPattern.MatchString(s)
}

// IsValidAliasType 別名類型只接受 SHID、MCOD
func IsValidAliasType(t AliasType) bool {
	return t == AliasTypeSHID || t == AliasTypeMCOD
}

// IsValidUUIDv4 RFC 4122 v4 格式，不分大小寫
func IsValidUUIDv4(s string) bool {
	return uuidV4Pattern.MatchString(s)
}

// IsValidAliasKey 別名 key 必須為 UUID v4
func IsValidAliasKey(k string) bool {
	return IsValidUUIDv4(k)
}

// InvalidAliasTypeReason 別名類型錯誤訊息
func InvalidAliasTypeReason(t AliasType) string {
	return fmt.Sprintf("Type d'alias invalide: %s. Types autorisés: SHID, MCOD", t)
}

// ValidationResult 驗證結果
type ValidationResult struct {
	Valid  bool
	Errors []Violation
}

// Err 轉成 *Error，驗證通過時回傳 nil
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return NewValidationErrors(r.Errors)
}

// ValidateTransfer 檢查轉帳請求，收集所有錯誤而不是遇到第一個就停止
//
// 參數:
//
//	req: 轉帳請求
//
// 回傳:
//
//	ValidationResult: Valid 為 false 時 Errors 依欄位順序列出所有錯誤
func ValidateTransfer(req TransferRequest) ValidationResult {
	var errs []Violation
	if !IsValidAccountNumber(req.DebitAccount) {
		errs = append(errs, Violation{Field: "compteDebiteur", Reason: ReasonInvalidDebitAccount})
	}
	if !IsValidAccountNumber(req.CreditAccount) {
		errs = append(errs, Violation{Field: "compteCrediteur", Reason: ReasonInvalidCreditAccount})
	}
	if req.Amount <= 0 {
		errs = append(errs, Violation{Field: "montant", Reason: ReasonAmountNotPositive})
	}
	if utf8.RuneCountInString(req.Motif) > MaxMotifLength {
		errs = append(errs, Violation{Field: "motif", Reason: ReasonMotifTooLong})
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
