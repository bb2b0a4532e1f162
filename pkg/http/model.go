package http

// APIResponse represents standard API response.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_ONEOF"`
	Field   string                 `json:"field,omitempty" example:"period"`
	Message string                 `json:"message,omitempty" example:"Period must be one of: 1y, 2y, 5y, 10y, max"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
