package utils

import "github.com/gin-gonic/gin"

// envelope is the wire shape of every API reply. Code 0 means success;
// non-zero codes classify failures beyond the HTTP status so clients can
// branch without parsing messages.
type envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success answers 200 with the standard envelope around data.
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(200, envelope{Code: 0, Message: "success", Data: data})
}

// Error answers with the given HTTP status and application error code.
func Error(ctx *gin.Context, status int, code int, message string) {
	ctx.JSON(status, envelope{Code: code, Message: message})
}
