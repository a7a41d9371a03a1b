package eventstore

import (
	"context"
	"fmt"

	"github.com/EventStore/EventStore-Client-Go/v4/esdb"

	"github.com/jiaming2012/rsa-tracker/src/utils"
)

func NewClientFromEnv() (*esdb.Client, error) {
	url, err := utils.GetEnv("EVENTSTOREDB_URL")
	if err != nil {
		return nil, fmt.Errorf("NewClientFromEnv: %w", err)
	}

	settings, err := esdb.ParseConnectionString(url)
	if err != nil {
		return nil, fmt.Errorf("NewClientFromEnv: failed to parse connection string: %w", err)
	}

	db, err := esdb.NewClient(settings)
	if err != nil {
		return nil, fmt.Errorf("NewClientFromEnv: failed to create client: %w", err)
	}

	return db, nil
}

func InsertEvent(ctx context.Context, eventName string, streamName string, data []byte, db *esdb.Client) error {
	eventData := esdb.EventData{
		ContentType: esdb.ContentTypeJson,
		EventType:   eventName,
		Data:        data,
	}

	_, err := db.AppendToStream(ctx, streamName, esdb.AppendToStreamOptions{}, eventData)

	return err
}
