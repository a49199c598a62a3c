package http

import (
	"net/http"
)

var (
	// Success response
	Success = Status{Code: http.StatusOK, Message: []string{"Success"}}
	// BadRequest response
	BadRequest = Status{Code: http.StatusBadRequest, Message: []string{"Sorry, Not responding because of incorrect syntax"}}
	// Unauthorized response
	Unauthorized = Status{Code: http.StatusUnauthorized, Message: []string{"Sorry, We are not able to process your request. Please try again"}}
	// NotFound response
	NotFound = Status{Code: http.StatusNotFound, Message: []string{"Sorry, Data not found"}}
	// InternalServerError response
	InternalServerError = Status{Code: http.StatusInternalServerError, Message: []string{"Internal Server Error"}}
)

// ResponseBody struct - Generic HTTP response wrapper
type ResponseBody struct {
	Status Status      `json:"status,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// Status struct
type Status struct {
	Code    int      `json:"code,omitempty"`
	Message []string `json:"message,omitempty"`
}

type (
	// SessionResponse struct - HTTP response DTO for a single chat session
	SessionResponse struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Active         bool   `json:"active"`
		Messages       int    `json:"messages"`
		BotMessageIDs  int    `json:"bot_message_ids"`
		UserMessageIDs int    `json:"user_message_ids"`
	}

	// UserSessionsResponse struct - HTTP response DTO for a user's sessions and settings
	UserSessionsResponse struct {
		UserKey     string            `json:"user_key"`
		Temperature float64           `json:"temperature"`
		MaxTokens   int               `json:"max_tokens"`
		Sessions    []SessionResponse `json:"sessions"`
	}
)
