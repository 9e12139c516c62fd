package http

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
)

// transferBody montant 以 decimal 解析，可接受數字或字串
type transferBody struct {
	DebitAccount  string           `json:"compteDebiteur"`
	CreditAccount string           `json:"compteCrediteur"`
	Amount        *decimal.Decimal `json:"montant"`
	Motif         string           `json:"motif"`
}

type aliasBody struct {
	Type domain.AliasType `json:"type"`
}

// amount 非整數或超出 int64 範圍時回傳錯誤欄位
func (b transferBody) amount() (int64, *domain.Violation) {
	if b.Amount == nil {
		return 0, nil
	}
	if !b.Amount.IsInteger() {
		return 0, &domain.Violation{Field: "montant", Reason: "montant doit être un entier"}
	}
	if !b.Amount.BigInt().IsInt64() {
		return 0, &domain.Violation{Field: "montant", Reason: "montant hors limites"}
	}
	return b.Amount.IntPart(), nil
}

// getAccount GET /comptes/:numero
func (s *Server) getAccount(c *fiber.Ctx) error {
	account, err := s.core.GetAccount(c.UserContext(), c.Params("numero"))
	if err != nil {
		return err
	}
	return c.JSON(account)
}

// listTransactions GET /comptes/transactions
// page、size 無法解析或為 0 時使用預設值
func (s *Server) listTransactions(c *fiber.Ctx) error {
	filter := domain.TransactionFilter{
		Page:   queryInt(c, "page"),
		Size:   queryInt(c, "size"),
		Sort:   c.Query("sort"),
		Status: domain.TransactionStatus(c.Query("statut")),
	}
	page, err := s.core.GetTransactions(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// createTransaction POST /comptes/transactions
func (s *Server) createTransaction(c *fiber.Ctx) error {
	var body transferBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return writeProblem(c, fiber.StatusBadRequest, "Corps de requête JSON invalide", nil)
	}

	amount, bad := body.amount()
	req := domain.TransferRequest{
		DebitAccount:  body.DebitAccount,
		CreditAccount: body.CreditAccount,
		Amount:        amount,
		Motif:         body.Motif,
	}
	if bad != nil {
		// 金額格式錯誤與其他欄位錯誤一起回報
		result := domain.ValidateTransfer(req)
		for i, v := range result.Errors {
			if v.Field == "montant" {
				result.Errors[i] = *bad
			}
		}
		return domain.NewValidationErrors(result.Errors)
	}

	tx, err := s.core.CreateTransaction(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(tx)
}

// listAliases GET /comptes/:numero/alias
func (s *Server) listAliases(c *fiber.Ctx) error {
	aliases, err := s.core.GetAlias(c.UserContext(), c.Params("numero"))
	if err != nil {
		return err
	}
	return c.JSON(aliases)
}

// createAlias POST /comptes/:numero/alias
func (s *Server) createAlias(c *fiber.Ctx) error {
	var body aliasBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return writeProblem(c, fiber.StatusBadRequest, "Corps de requête JSON invalide", nil)
	}
	alias, err := s.core.CreateAlias(c.UserContext(), c.Params("numero"), body.Type)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(alias)
}

// deleteAlias DELETE /comptes/:numero/alias/:cle
func (s *Server) deleteAlias(c *fiber.Ctx) error {
	if err := s.core.DeleteAlias(c.UserContext(), c.Params("numero"), c.Params("cle")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func queryInt(c *fiber.Ctx, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}
