package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind 錯誤分類，傳輸層只依據 Kind 決定回應，不解析訊息文字
type ErrorKind string

const (
	KindValidationFailed      ErrorKind = "VALIDATION_FAILED"
	KindNotFound              ErrorKind = "NOT_FOUND"
	KindInsufficientFunds     ErrorKind = "INSUFFICIENT_FUNDS"
	KindCapacityExceeded      ErrorKind = "CAPACITY_EXCEEDED"
	KindInternalInconsistency ErrorKind = "INTERNAL_INCONSISTENCY"
)

var (
	// ErrValidationFailed 輸入格式或業務規則驗證失敗
	ErrValidationFailed = errors.New("validation failed")

	// ErrNotFound 找不到實體 (帳戶、別名、Webhook)
	ErrNotFound = errors.New("entity not found")

	// ErrInsufficientFunds 餘額不足
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCapacityExceeded 超過數量上限
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInternalInconsistency 非預期錯誤
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

// Violation 單一欄位的驗證錯誤
type Violation struct {
	Field  string `json:"name"`
	Reason string `json:"reason"`
}

// Error 帶有分類與欄位資訊的業務錯誤
type Error struct {
	Kind       ErrorKind
	Entity     string
	Reason     string
	Violations []Violation
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(string(e.Kind)))
	if e.Entity != "" {
		b.WriteString(" [")
		b.WriteString(e.Entity)
		b.WriteString("]")
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Unwrap 讓 errors.Is(err, ErrNotFound) 這類判斷成立
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindValidationFailed:
		return ErrValidationFailed
	case KindNotFound:
		return ErrNotFound
	case KindInsufficientFunds:
		return ErrInsufficientFunds
	case KindCapacityExceeded:
		return ErrCapacityExceeded
	default:
		return ErrInternalInconsistency
	}
}

// NewValidationError 單一欄位的驗證錯誤
func NewValidationError(field, reason string) *Error {
	return &Error{
		Kind:       KindValidationFailed,
		Entity:     field,
		Reason:     reason,
		Violations: []Violation{{Field: field, Reason: reason}},
	}
}

// NewValidationErrors 多欄位驗證錯誤，Reason 為所有原因以 ", " 串接
func NewValidationErrors(violations []Violation) *Error {
	reasons := make([]string, 0, len(violations))
	for _, v := range violations {
		reasons = append(reasons, v.Reason)
	}
	entity := ""
	if len(violations) == 1 {
		entity = violations[0].Field
	}
	return &Error{
		Kind:       KindValidationFailed,
		Entity:     entity,
		Reason:     strings.Join(reasons, ", "),
		Violations: violations,
	}
}

// NewNotFoundError entity 為查無資料的欄位名稱 (numero, compteDebiteur, cle, id...)
func NewNotFoundError(entity, reason string) *Error {
	return &Error{
		Kind:       KindNotFound,
		Entity:     entity,
		Reason:     reason,
		Violations: []Violation{{Field: entity, Reason: reason}},
	}
}

func NewInsufficientFundsError(reason string) *Error {
	return &Error{Kind: KindInsufficientFunds, Entity: "montant", Reason: reason}
}

func NewCapacityExceededError(entity, reason string) *Error {
	return &Error{Kind: KindCapacityExceeded, Entity: entity, Reason: reason}
}

// NewInternalError 將非業務錯誤包裝為 InternalInconsistency
func NewInternalError(cause error) *Error {
	return &Error{Kind: KindInternalInconsistency, Reason: fmt.Sprintf("%v", cause)}
}

// KindOf 取得錯誤分類，非 *Error 一律視為 InternalInconsistency
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternalInconsistency
}
