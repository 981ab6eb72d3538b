package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// respondList writes a 200 list body with an ETag, or 304 when the caller
// already holds it. The tag covers the element type as well as the body,
// so "[]" from /clients and "[]" from /logs never share a validator.
func respondList[T any](ctx *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}

	body, err := json.Marshal(items)
	if err != nil {
		RespondInternal(ctx, "Failed to encode response")
		return
	}

	tag := listETag(fmt.Sprintf("%T", items), body)
	ctx.Header("ETag", tag)
	ctx.Header("Cache-Control", "no-cache")

	if etagListed(ctx.GetHeader("If-None-Match"), tag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func listETag(kind string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write(body)
	return `"` + hex.EncodeToString(h.Sum(nil)[:16]) + `"`
}

// etagListed reports whether an If-None-Match header names tag, comparing
// weakly.
func etagListed(header, tag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == tag {
			return true
		}
	}
	return false
}
