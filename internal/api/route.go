package api

import (
	v1 "github.com/abenikeb/biisho-a2p/internal/api/v1"
	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App, handler *v1.Handler) {
	app.Get("/ping", handler.Pong)

	app.Post("/v1/messages", handler.SubmitMessage)
	app.Get("/v1/messages", handler.GetMessages)
	app.Get("/v1/messages/:id", handler.GetMessage)
	app.Get("/v1/messages/:id/recipients", handler.GetRecipients)
	app.Patch("/v1/messages/:id", handler.UpdateMessage)
	app.Delete("/v1/messages/:id", handler.CancelMessage)
	app.Post("/v1/messages/:id/send", handler.SendMessage)
	app.Post("/v1/messages/:id/approve", handler.ApproveMessage)
	app.Post("/v1/messages/:id/reject", handler.RejectMessage)

	app.Get("/v1/accounts/:id/balance", handler.GetBalance)
	app.Post("/v1/accounts/:id/credits", handler.PurchaseCredits)
	app.Get("/v1/accounts/:id/entries", handler.GetLedgerEntries)
}
