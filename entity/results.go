package entity

// Action tells the caller what to do with ActionData.
type Action string

const (
	ActionRedirect Action = "redirect"
)

// PaymentRequestResult is the outcome of submitting a payment.
type PaymentRequestResult struct {
	Successful   bool   `json:"successful"`
	Action       Action `json:"action"`
	ActionData   string `json:"action_data,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// StatusUpdateResult is the outcome of processing a webhook.
type StatusUpdateResult struct {
	Successful bool   `json:"successful"`
	Status     string `json:"status"`
	StatusCode int    `json:"status_code,omitempty"`
}

// PaymentReturnResult is the outcome of a browser return from checkout.
type PaymentReturnResult struct {
	Successful bool   `json:"successful"`
	Action     Action `json:"action"`
	ActionData string `json:"action_data,omitempty"`
}
