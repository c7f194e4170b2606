package entity

import "time"

// ProviderLog is the persisted record of one exchange with the payment provider.
type ProviderLog struct {
	Provider      string    `json:"provider" bson:"provider"`
	InvoiceNumber string    `json:"invoice_number" bson:"invoice_number"`
	StatusCode    int       `json:"status_code" bson:"status_code"`
	Url           string    `json:"url,omitempty" bson:"url,omitempty"`
	RequestBody   string    `json:"request_body,omitempty" bson:"request_body,omitempty"`
	ResponseBody  string    `json:"response_body,omitempty" bson:"response_body,omitempty"`
	Error         string    `json:"error,omitempty" bson:"error,omitempty"`
	IsIncoming    bool      `json:"is_incoming" bson:"is_incoming"`
	Time          time.Time `json:"time" bson:"time"`
}

func (l *ProviderLog) DataType() string {
	return "provider_log"
}

// LogMessage is a persisted service log line.
type LogMessage struct {
	Time     time.Time `json:"time" bson:"time"`
	Level    string    `json:"level" bson:"level"`
	Category string    `json:"category" bson:"category"`
	Text     string    `json:"text" bson:"text"`
}

func (l *LogMessage) DataType() string {
	return "log"
}
