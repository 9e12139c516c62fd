package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
)

func decodeWebhook(c *fiber.Ctx) (domain.WebhookInput, bool) {
	var in domain.WebhookInput
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return domain.WebhookInput{}, false
	}
	return in, true
}

func (s *Server) getWebhook(c *fiber.Ctx) error {
	hook, err := s.webhooks.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(hook)
}

func (s *Server) createWebhook(c *fiber.Ctx) error {
	in, ok := decodeWebhook(c)
	if !ok {
		return writeProblem(c, fiber.StatusBadRequest, "Corps de requête JSON invalide", nil)
	}
	hook, err := s.webhooks.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(hook)
}

func (s *Server) updateWebhook(c *fiber.Ctx) error {
	in, ok := decodeWebhook(c)
	if !ok {
		return writeProblem(c, fiber.StatusBadRequest, "Corps de requête JSON invalide", nil)
	}
	hook, err := s.webhooks.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(hook)
}

func (s *Server) deleteWebhook(c *fiber.Ctx) error {
	if err := s.webhooks.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// rotateWebhookSecret POST /webhooks/:id/secrets
func (s *Server) rotateWebhookSecret(c *fiber.Ctx) error {
	secret, err := s.webhooks.RotateSecret(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"secret": secret})
}
