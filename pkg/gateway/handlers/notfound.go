package handlers

import (
	"net/http"

	"github.com/vango-go/voicegate/pkg/core"
	"github.com/vango-go/voicegate/pkg/gateway/mw"
)

type NotFoundHandler struct{}

func (h NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	writeErrorJSON(w, http.StatusNotFound, reqID, &core.Error{
		Type:    core.ErrInvalidRequest,
		Code:    "not_found",
		Message: "not found",
	})
}
