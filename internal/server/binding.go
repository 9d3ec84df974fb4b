package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type bindMessages map[string]map[string]string

func bindJSON(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeMessage(c, http.StatusBadRequest, resolveBindError(err, messages, fallback))
		return false
	}
	return true
}

func bindURI(c *gin.Context, req any, messages bindMessages) bool {
	if err := c.ShouldBindUri(req); err != nil {
		writeMessage(c, http.StatusBadRequest, resolveBindError(err, messages, "invalid path"))
		return false
	}
	return true
}

func resolveBindError(err error, messages bindMessages, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if fieldMsgs, ok := messages[verr.Field()]; ok {
				if msg, ok := fieldMsgs[verr.Tag()]; ok {
					return msg
				}
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return "invalid request"
}
