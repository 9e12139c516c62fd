package grpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
)

// toStruct 經由 JSON 將資料轉為 structpb.Struct，欄位名稱與 HTTP 回應一致
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("response is not an object: %w", err)
	}
	return structpb.NewStruct(m)
}

// fromStruct 將 structpb.Struct 解回 Go 結構
func fromStruct(s *structpb.Struct, v any) error {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("marshal struct: %w", err)
	}
	return json.Unmarshal(raw, v)
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

// intField 讀取分頁參數；缺少或無法解析的字串回傳 0 (套用預設值)，
// 非整數或超出範圍的數字回傳 -1，由 TransactionFilter.Validate 拒絕
func intField(s *structpb.Struct, name string) int {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := k.NumberValue
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return -1
		}
		return int(k.NumberValue)
	case *structpb.Value_StringValue:
		n, err := strconv.Atoi(k.StringValue)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// amountField montant 可為數字或字串，必須是整數
func amountField(s *structpb.Struct) (int64, *domain.Violation) {
	v, ok := s.GetFields()["montant"]
	if !ok {
		return 0, nil
	}
	var d decimal.Decimal
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		if math.IsNaN(k.NumberValue) || math.IsInf(k.NumberValue, 0) {
			return 0, &domain.Violation{Field: "montant", Reason: "montant invalide"}
		}
		d = decimal.NewFromFloat(k.NumberValue)
	case *structpb.Value_StringValue:
		parsed, err := decimal.NewFromString(k.StringValue)
		if err != nil {
			return 0, &domain.Violation{Field: "montant", Reason: "montant invalide"}
		}
		d = parsed
	default:
		return 0, &domain.Violation{Field: "montant", Reason: "montant invalide"}
	}
	if !d.IsInteger() {
		return 0, &domain.Violation{Field: "montant", Reason: "montant doit être un entier"}
	}
	if !d.BigInt().IsInt64() {
		return 0, &domain.Violation{Field: "montant", Reason: "montant hors limites"}
	}
	return d.IntPart(), nil
}

// codeForKind 錯誤分類對應 gRPC 狀態碼
func codeForKind(kind domain.ErrorKind) codes.Code {
	switch kind {
	case domain.KindValidationFailed:
		return codes.InvalidArgument
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindInsufficientFunds:
		return codes.FailedPrecondition
	case domain.KindCapacityExceeded:
		return codes.ResourceExhausted
	default:
		return codes.Internal
	}
}

func kindForCode(code codes.Code) domain.ErrorKind {
	switch code {
	case codes.InvalidArgument:
		return domain.KindValidationFailed
	case codes.NotFound:
		return domain.KindNotFound
	case codes.FailedPrecondition:
		return domain.KindInsufficientFunds
	case codes.ResourceExhausted:
		return domain.KindCapacityExceeded
	default:
		return domain.KindInternalInconsistency
	}
}

// toStatus 業務錯誤轉為 gRPC status，欄位錯誤放在 details
func toStatus(err error) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		return status.Error(codes.Internal, "internal error")
	}
	code := codeForKind(de.Kind)
	if code == codes.Internal {
		return status.Error(codes.Internal, "internal error")
	}
	st := status.New(code, de.Reason)
	detail, derr := toStruct(map[string]any{
		"entity":         de.Entity,
		"invalid-params": de.Violations,
	})
	if derr != nil {
		return st.Err()
	}
	if withDetails, werr := st.WithDetails(detail); werr == nil {
		st = withDetails
	}
	return st.Err()
}

// FromStatus 將 gRPC 錯誤還原為 *domain.Error
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	de := &domain.Error{Kind: kindForCode(st.Code()), Reason: st.Message()}
	for _, d := range st.Details() {
		s, ok := d.(*structpb.Struct)
		if !ok {
			continue
		}
		var payload struct {
			Entity     string             `json:"entity"`
			Violations []domain.Violation `json:"invalid-params"`
		}
		if fromStruct(s, &payload) == nil {
			de.Entity = payload.Entity
			de.Violations = payload.Violations
		}
	}
	return de
}
