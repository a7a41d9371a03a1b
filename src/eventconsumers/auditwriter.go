package eventconsumers

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/rsa-tracker/src/eventmodels"
	pubsub "github.com/jiaming2012/rsa-tracker/src/eventpubsub"
)

// AuditWriter appends every audit record to a json-lines file. The file is
// the source for the exportaudit tool.
type AuditWriter struct {
	wg    *sync.WaitGroup
	path  string
	mutex sync.Mutex
}

func (w *AuditWriter) auditHandler(record *eventmodels.AuditRecord) {
	log.Debugf("AuditWriter.auditHandler <- %v", record)

	data, err := json.Marshal(record)
	if err != nil {
		log.Errorf("AuditWriter.auditHandler: failed to marshal record: %v", err)
		return
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Errorf("AuditWriter.auditHandler: failed to open %s: %v", w.path, err)
		return
	}

	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Errorf("AuditWriter.auditHandler: failed to write record: %v", err)
	}
}

func (w *AuditWriter) Start(ctx context.Context) {
	w.wg.Add(1)

	pubsub.Subscribe("AuditWriter", pubsub.AuditEvent, w.auditHandler)

	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				log.Info("stopping AuditWriter consumer")
				return
			}
		}
	}()
}

func NewAuditWriter(wg *sync.WaitGroup, path string) *AuditWriter {
	return &AuditWriter{
		wg:   wg,
		path: path,
	}
}
