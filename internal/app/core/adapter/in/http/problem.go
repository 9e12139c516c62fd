package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
)

const (
	problemContentType = "application/problem+json"
	webhookProblemBase = "https://developers.pi-bceao.com/problems/"
)

// Problem RFC 7807 錯誤格式
type Problem struct {
	Type          string             `json:"type"`
	Title         string             `json:"title"`
	Detail        string             `json:"detail,omitempty"`
	Status        int                `json:"status"`
	InvalidParams []domain.Violation `json:"invalid-params,omitempty"`
}

// newProblem 依路徑決定 type: /webhooks 使用文件網址，其餘為 about:blank
func newProblem(path string, status int, detail string, params []domain.Violation) Problem {
	typ := "about:blank"
	if strings.HasPrefix(path, "/webhooks") {
		typ = fmt.Sprintf("%s%d", webhookProblemBase, status)
	}
	return Problem{
		Type:          typ,
		Title:         http.StatusText(status),
		Detail:        detail,
		Status:        status,
		InvalidParams: params,
	}
}

func writeProblem(c *fiber.Ctx, status int, detail string, params []domain.Violation) error {
	body := newProblem(c.Path(), status, detail, params)
	c.Status(status)
	return c.JSON(body, problemContentType)
}

// statusForKind 錯誤分類對應 HTTP 狀態碼
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidationFailed:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindInsufficientFunds:
		return fiber.StatusBadRequest
	case domain.KindCapacityExceeded:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler 將 handler 回傳的錯誤轉為 Problem
func ErrorHandler(c *fiber.Ctx, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		status := statusForKind(de.Kind)
		if status == fiber.StatusInternalServerError {
			return writeProblem(c, status, "Une erreur inattendue s'est produite", nil)
		}
		return writeProblem(c, status, de.Reason, de.Violations)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return writeProblem(c, fe.Code, fe.Message, nil)
	}
	return writeProblem(c, fiber.StatusInternalServerError, "Une erreur inattendue s'est produite", nil)
}
