package amqp

import (
	"encoding/json"
	"time"
)

// ExportRequest asks the worker to export a user's transactions. It carries
// only the user and format; the worker reads the transactions from the store
// at processing time.
type ExportRequest struct {
	UserID      string    `json:"user_id"`
	ExportType  string    `json:"export_type"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewExportRequest(userID, exportType string) *ExportRequest {
	return &ExportRequest{
		UserID:      userID,
		ExportType:  exportType,
		RequestedAt: time.Now(),
	}
}

func (m *ExportRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportRequestFromJSON(data []byte) (*ExportRequest, error) {
	var msg ExportRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
