package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kataras/go-events"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/rsa-tracker/src/eventmodels"
	"github.com/jiaming2012/rsa-tracker/src/models"
)

type gatewayFrameDTO struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

func Connect(gatewayURL string) (*websocket.Conn, error) {
	log.Infof("connecting to %s", gatewayURL)

	c, _, err := websocket.DefaultDialer.Dial(gatewayURL, nil)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Run reads chat frames from the gateway connection and emits each one as
// an inbound chat message. Read failures trigger a reconnect; the loop ends
// only when ctx is canceled.
func Run(ctx context.Context, gatewayURL string, c *websocket.Conn) {
	// c is reassigned on reconnect; close whichever connection is live on exit
	defer func() {
		if err := c.Close(); err != nil {
			log.Errorf("error closing gateway connection: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping gateway worker")
			return
		default:
			c.SetReadDeadline(time.Now().UTC().Add(30 * time.Second))
			_, message, err := c.ReadMessage()

			if err != nil {
				log.Errorf("ReadMessage(): %v", err)

				newConn, newErr := Connect(gatewayURL)
				if newErr != nil {
					log.Errorf("failed to reconnect: %v", newErr)
					time.Sleep(5 * time.Second)
					continue
				}

				if e := c.Close(); e != nil {
					log.Errorf("error closing old connection: %v", e)
				}

				c = newConn
				continue
			}

			var frame gatewayFrameDTO
			if err := json.Unmarshal(message, &frame); err != nil {
				log.Errorf("failed to unmarshal json: %v", err)
				continue
			}

			if frame.UserID == "" || frame.Content == "" {
				continue
			}

			events.Emit(models.InboundChatMessage, eventmodels.ChatMessage{
				UserID:     frame.UserID,
				Text:       frame.Content,
				ReceivedAt: time.Now().UTC(),
			})
		}
	}
}
