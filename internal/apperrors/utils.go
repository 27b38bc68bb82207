package apperrors

// file: internal/apperrors/utils.go

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/jsonrpc2"
)

// Category extracts the category detail string attached by WithDetails.
func Category(err error) string {
	for _, detail := range errors.GetAllDetails(err) {
		if strings.HasPrefix(detail, "category:") {
			return strings.TrimPrefix(detail, "category:")
		}
	}
	return ""
}

// Code extracts the numeric code detail string attached by WithDetails,
// defaulting to CodeInternalError when absent or malformed.
func Code(err error) int {
	for _, detail := range errors.GetAllDetails(err) {
		if strings.HasPrefix(detail, "code:") {
			if code, parseErr := strconv.Atoi(strings.TrimPrefix(detail, "code:")); parseErr == nil {
				return code
			}
		}
	}
	return CodeInternalError
}

var detailPattern = regexp.MustCompile(`^([^:]+):(.+)$`)

// Properties extracts every "key:value" detail string other than
// category/code, typing values as int/bool where they parse cleanly.
func Properties(err error) map[string]interface{} {
	props := make(map[string]interface{})
	for _, detail := range errors.GetAllDetails(err) {
		m := detailPattern.FindStringSubmatch(detail)
		if len(m) != 3 {
			continue
		}
		key, value := m[1], m[2]
		if key == "category" || key == "code" {
			continue
		}
		switch {
		case isInt(value):
			n, _ := strconv.Atoi(value)
			props[key] = n
		case value == "true" || value == "false":
			props[key] = value == "true"
		default:
			props[key] = value
		}
	}
	return props
}

func isInt(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func containsSensitiveKeyword(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range []string{"token", "password", "secret", "key", "auth", "credential", "session", "cookie"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ToJSONRPCError converts an apperrors-constructed error into the wire error
// shape the dispatcher serializes back to the host.
func ToJSONRPCError(err error) *jsonrpc2.Error {
	if err == nil {
		return nil
	}
	code := Code(err)
	rpcErr := &jsonrpc2.Error{
		Code:    int64(code),
		Message: UserFacingMessage(code),
	}
	safe := make(map[string]interface{})
	for k, v := range Properties(err) {
		if !containsSensitiveKeyword(k) {
			safe[k] = v
		}
	}
	if len(safe) > 0 {
		if data, marshalErr := json.Marshal(safe); marshalErr == nil {
			raw := json.RawMessage(data)
			rpcErr.Data = &raw
		}
	}
	return rpcErr
}
