package response

// Response is the JSON envelope for all API replies. It carries no
// wall-clock field: equal outcomes must render byte-equal bodies.
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Success       bool        `json:"success" validate:"required"`
	StatusMessage string      `json:"status_message"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: "Success",
	}
}

func Error(message string) Response {
	return Response{
		Success:       false,
		StatusMessage: message,
	}
}
