/**
 * @description
 * Uniform HTTP response envelope.
 * Endpoints that return metadata (global stats, distribution, cache
 * operations) wrap their payload in APIResponse; the per-category list
 * endpoints return bare JSON arrays.
 */

package models

// APIResponse is the generic success/error envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Error   *string     `json:"error"`
}

// OK builds a success envelope.
func OK(message string, data interface{}) APIResponse {
	return APIResponse{Success: true, Message: message, Data: data}
}

// Fail builds an error envelope.
func Fail(message, errMsg string) APIResponse {
	return APIResponse{Success: false, Message: message, Error: &errMsg}
}
