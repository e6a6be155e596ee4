package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"ecommerce_back_end/internal/middleware"
)

const wsPingInterval = 30 * time.Second

// NewUpgrader n'accepte que les origines CORS configurées.
func NewUpgrader(origins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		},
	}
}

// GET /api/cart/ws : pousse le panier à jour à chaque événement cart:{userID}
func (h *CartHandler) WebSocket(upgrader websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("❌ Erreur upgrade WebSocket: %v", err)
			return
		}
		defer conn.Close()

		ctx := c.Request.Context()
		events, unsubscribe := h.events.Subscribe(ctx, userID)
		defer unsubscribe()

		// lecture en tâche de fond pour détecter la fermeture côté client
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if err := conn.WriteJSON(gin.H{"type": "connected", "message": "Synchronisation panier activée"}); err != nil {
			return
		}

		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case event, open := <-events:
				if !open {
					return
				}
				view, err := h.carts.View(ctx, userID)
				if err != nil {
					log.Printf("⚠️ Panier illisible pour %s: %v", userID, err)
					continue
				}
				if err := conn.WriteJSON(gin.H{"type": "cart_" + event, "cart": view}); err != nil {
					log.Printf("❌ Erreur envoi WebSocket: %v", err)
					return
				}
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-closed:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}
