package handler

// MsgContactDeleted acknowledges a successful delete.
const MsgContactDeleted = "Contact deleted successfully"

// MessageResponse carries a human readable acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
