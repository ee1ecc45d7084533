package response

import "errors"

// Response is the error envelope shared by every handler. Code and Error carry
// the same machine-readable value so that clients reading either field work.
type Response struct {
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error Codes
type ErrCode string

const (
	VALIDATION_ERROR          ErrCode = "VALIDATION_ERROR"
	INVALID_API_KEY           ErrCode = "INVALID_API_KEY"
	TENANT_INACTIVE           ErrCode = "TENANT_INACTIVE"
	EMPLOYEE_NOT_FOUND        ErrCode = "EMPLOYEE_NOT_FOUND"
	PRODUCT_NOT_FOUND         ErrCode = "PRODUCT_NOT_FOUND"
	TIME_SLOT_OCCUPIED        ErrCode = "TIME_SLOT_OCCUPIED"
	NOT_FOUND                 ErrCode = "NOT_FOUND"
	LOCKED                    ErrCode = "LOCKED"
	INVALID_STATUS_TRANSITION ErrCode = "INVALID_STATUS_TRANSITION"
	DATABASE_ERROR            ErrCode = "DATABASE_ERROR"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("invalid api key")
	ErrForbidden         = errors.New("tenant is inactive")
	ErrStaffNotFound     = errors.New("employee not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrSlotOccupied      = errors.New("time slot is occupied")
	ErrNotFound          = errors.New("resource not found")
	ErrLocked            = errors.New("resource is locked")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPersistence       = errors.New("persistence failure")
)

func Error(code ErrCode, msg string) Response {
	return Response{
		Code:    string(code),
		Error:   string(code),
		Message: msg,
	}
}
