package eventconsumers

import (
	"context"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/rsa-tracker/src/chat"
	"github.com/jiaming2012/rsa-tracker/src/eventmodels"
	pubsub "github.com/jiaming2012/rsa-tracker/src/eventpubsub"
)

// NotifierClient is the single egress point to the chat channel.
type NotifierClient struct {
	wg         *sync.WaitGroup
	webhookURL string
}

func (c *NotifierClient) notificationHandler(ev *eventmodels.NotificationEvent) {
	log.Debugf("NotifierClient.notificationHandler <- %v", ev)

	if err := chat.SendMessage(ev.Text, c.webhookURL); err != nil {
		log.Error(err)
	}
}

func (c *NotifierClient) summaryHandler(ev *eventmodels.SummaryEvent) {
	log.Debugf("NotifierClient.summaryHandler <- %v", ev)

	msg := "No open positions on the watchlist"
	if len(ev.Lines) > 0 {
		msg = strings.Join(ev.Lines, "\n")
	}

	if err := chat.SendMessage(msg, c.webhookURL); err != nil {
		log.Error(err)
	}
}

func (c *NotifierClient) sendError(err error) {
	log.Debugf("NotifierClient.sendError <- %v", err)

	if sendErr := chat.SendMessage(err.Error(), c.webhookURL); sendErr != nil {
		log.Error(sendErr)
	}
}

func (c *NotifierClient) Start(ctx context.Context) {
	c.wg.Add(1)

	pubsub.Subscribe("NotifierClient", pubsub.NotificationEvent, c.notificationHandler)
	pubsub.Subscribe("NotifierClient", pubsub.SummaryEvent, c.summaryHandler)
	pubsub.Subscribe("NotifierClient", pubsub.Error, c.sendError)

	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				log.Info("stopping NotifierClient consumer")
				return
			}
		}
	}()
}

func NewNotifierClient(wg *sync.WaitGroup, webhookURL string) *NotifierClient {
	return &NotifierClient{
		wg:         wg,
		webhookURL: webhookURL,
	}
}
