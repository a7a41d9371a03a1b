package eventmodels

import "github.com/google/uuid"

type MetaData struct {
	RequestID uuid.UUID `json:"request_id"`
	Source    string    `json:"source"`
}

func NewMetaData(source string) *MetaData {
	return &MetaData{
		RequestID: uuid.New(),
		Source:    source,
	}
}
