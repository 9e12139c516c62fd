package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// WebhookEvent PI-SPI 事件代碼
type WebhookEvent string

const (
	EventPaymentReceived          WebhookEvent = "PAIEMENT_RECU"
	EventPaymentSent              WebhookEvent = "PAIEMENT_ENVOYE"
	EventPaymentRejected          WebhookEvent = "PAIEMENT_REJETE"
	EventRTPReceived              WebhookEvent = "RTP_RECU"
	EventRTPRejected              WebhookEvent = "RTP_REJETE"
	EventRTPResponseRejected      WebhookEvent = "RTP_REPONSE_REJETE"
	EventCancellationRequest      WebhookEvent = "ANNULATION_DEMANDE"
	EventCancellationRespRejected WebhookEvent = "ANNULATION_REPONSE_REJETE"
	EventCancellationRejected     WebhookEvent = "ANNULATION_REJETE"
	EventReturnSent               WebhookEvent = "RETOUR_ENVOYE"
	EventReturnRejected           WebhookEvent = "RETOUR_REJETE"
	EventReturnReceived           WebhookEvent = "RETOUR_RECU"
)

// WebhookEvents 所有支援的事件
var WebhookEvents = []WebhookEvent{
	EventPaymentReceived, EventPaymentSent, EventPaymentRejected,
	EventRTPReceived, EventRTPRejected, EventRTPResponseRejected,
	EventCancellationRequest, EventCancellationRespRejected, EventCancellationRejected,
	EventReturnSent, EventReturnRejected, EventReturnReceived,
}

// MaxWebhooks 訂閱數量上限
const MaxWebhooks = 10

// Webhook 事件訂閱
type Webhook struct {
	ID          string         `json:"id"`
	CallbackURL string         `json:"callbackUrl"`
	Events      []WebhookEvent `json:"events"`
	Alias       string         `json:"alias,omitempty"`
	Secret      string         `json:"secret"`
	CreatedAt   time.Time      `json:"dateCreation"`
	UpdatedAt   *time.Time     `json:"dateModification"`
}

// WebhookInput 建立或更新訂閱的輸入
type WebhookInput struct {
	CallbackURL string         `json:"callbackUrl" validate:"required,url"`
	Events      []WebhookEvent `json:"events" validate:"required,min=1,dive,webhook_event"`
	Alias       string         `json:"alias,omitempty" validate:"omitempty,max=128"`
}

var (
	webhookValidate     *validator.Validate
	webhookValidateOnce sync.Once
)

func webhookValidator() *validator.Validate {
	webhookValidateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// 錯誤欄位名稱使用 json tag
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("webhook_event", func(fl validator.FieldLevel) bool {
			return IsValidWebhookEvent(WebhookEvent(fl.Field().String()))
		})
		webhookValidate = v
	})
	return webhookValidate
}

// IsValidWebhookEvent 是否為支援的事件
func IsValidWebhookEvent(e WebhookEvent) bool {
	for _, known := range WebhookEvents {
		if e == known {
			return true
		}
	}
	return false
}

// ValidateWebhook 檢查訂閱內容，收集所有欄位錯誤
func ValidateWebhook(in WebhookInput) ValidationResult {
	err := webhookValidator().Struct(in)
	if err == nil {
		return ValidationResult{Valid: true}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationResult{Errors: []Violation{{Field: "body", Reason: err.Error()}}}
	}

	errs := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, Violation{Field: fe.Field(), Reason: webhookReason(fe)})
	}
	return ValidationResult{Errors: errs}
}

func webhookReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		return fmt.Sprintf("%s est requis", fe.Field())
	case "url":
		return "callbackUrl doit être une URL valide"
	case "webhook_event":
		return fmt.Sprintf("Événement invalide: %v", fe.Value())
	case "max":
		return fmt.Sprintf("%s trop long (max %s caractères)", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s invalide", fe.Field())
	}
}
