package server

type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func NewErrorResponse(msg string) ErrorResponse {
	return ErrorResponse{Status: "error", Error: msg}
}

type StatusResponse struct {
	Status string `json:"status"`
}

func NewOKResponse() StatusResponse {
	return StatusResponse{Status: "OK"}
}
