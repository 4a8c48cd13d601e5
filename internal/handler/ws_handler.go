package handler

import (
	"go-cashbook-api/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UpgradeWS rejects plain HTTP requests on the socket route
func UpgradeWS(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.SendStatus(fiber.StatusUpgradeRequired)
}

// ServeWS registers the socket with the hub under the caller's company and
// keeps it open until the client goes away
func ServeWS(hub *ws.Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(string)
		companyID, _ := c.Locals("company_id").(string)

		cid, err := uuid.Parse(companyID)
		if err != nil {
			_ = c.Close()
			return
		}
		uid, _ := uuid.Parse(userID)

		if !hub.Join(&ws.Client{Conn: c, CompanyID: cid, UserID: uid}) {
			_ = c.Close()
			return
		}
		defer hub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	})
}
