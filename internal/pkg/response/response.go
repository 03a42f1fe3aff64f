package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform API response body: {success, data, message}.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

func Write(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(Envelope{
		Success: status < 400,
		Data:    data,
		Message: message,
	})
}

func OK(w http.ResponseWriter, data interface{}, message string) {
	Write(w, http.StatusOK, data, message)
}

func Created(w http.ResponseWriter, data interface{}, message string) {
	Write(w, http.StatusCreated, data, message)
}

func Fail(w http.ResponseWriter, status int, message string) {
	Write(w, status, nil, message)
}
