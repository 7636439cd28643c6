package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/pizzeria-app/kds"
	"github.com/yeremiapane/pizzeria-app/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type KDSController struct {
	Hub *kds.Hub
}

func NewKDSController(hub *kds.Hub) *KDSController {
	return &KDSController{Hub: hub}
}

// KDSHandler -> endpoint WebSocket untuk layar dapur
func (kc *KDSController) KDSHandler(c *gin.Context) {
	role := c.GetString("role")
	if role != models.RoleChef && role != models.RoleStaff && role != models.RoleAdmin {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	kc.Hub.Register(ws, role)

	// Client tidak mengirim apa-apa; baca sampai koneksi putus
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	kc.Hub.Unregister(ws)
}
