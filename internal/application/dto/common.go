package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// QueryResponse envoltorio de toda lectura: {data, is_loading, error}.
type QueryResponse struct {
	Data      any            `json:"data"`
	IsLoading bool           `json:"is_loading"`
	Cached    bool           `json:"cached"`
	Error     *ErrorResponse `json:"error"`
}

// ConfirmationResponse se devuelve con 428 cuando una operación necesita confirmación.
type ConfirmationResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Prompt  string `json:"prompt"`
}
