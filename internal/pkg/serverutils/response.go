package serverutils

import "ai-docview/internal/dto"

// BaseResponse is the envelope used by the local callback receiver and the
// mock service's own endpoints (health, create).
type BaseResponse[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) BaseResponse[T] {
	return BaseResponse[T]{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) BaseResponse[any] {
	return BaseResponse[any]{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// Detail is the bare {"detail": "..."} body of the document service contract.
func Detail(message string) dto.ErrorResponse {
	return dto.ErrorResponse{Detail: message}
}
