package audit

import (
	"net/http"
	"strings"
)

// pathInfo is what the audit trail extracts from a request path.
type pathInfo struct {
	documentID   string
	resourceType string
	resourceID   string
	action       string
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// stripAction splits "abc:suppress" into "abc" and "suppress".
func stripAction(segment string) (string, string) {
	if idx := strings.Index(segment, ":"); idx > 0 {
		return segment[:idx], segment[idx+1:]
	}
	return segment, ""
}

// parsePath extracts document and resource identifiers from paths such as
//
//	/api/v1/documents/{documentId}/recommendations
//	/api/v1/documents/{documentId}/ratings
//	/api/v1/recommendations/{id}/status
//	/api/v1/recommendations/{id}:suppress
//	/api/v1/evaluations
func parsePath(method, path string) pathInfo {
	parts := splitPath(path)
	var info pathInfo
	var suffix, custom string

	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "documents":
			if i+1 < len(parts) {
				info.documentID = parts[i+1]
				i++
			}
		case "recommendations", "ratings", "evaluations", "templates":
			info.resourceType = parts[i]
			if i+1 < len(parts) {
				info.resourceID, custom = stripAction(parts[i+1])
				i++
			}
		default:
			if info.resourceType != "" {
				suffix = parts[i]
			}
		}
	}
	info.action = actionVerb(method, info.resourceType, suffix, custom)
	return info
}

func actionVerb(method, resourceType, suffix, custom string) string {
	if custom != "" {
		return custom
	}
	switch {
	case suffix == "status":
		return "update-status"
	case resourceType == "ratings":
		return "record-rating"
	case resourceType == "evaluations":
		return "evaluate"
	}
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut:
		return "update"
	case http.MethodPatch:
		return "patch"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

// computeOnly lists path segments whose endpoints take a body but change no
// state.
var computeOnly = map[string]bool{
	"scores":   true,
	"triggers": true,
}

// isAudited reports whether the request changes state and should be recorded.
func isAudited(method, path string) bool {
	if isHealthEndpoint(path) {
		return false
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return false
	}
	for _, p := range splitPath(path) {
		if computeOnly[p] {
			return false
		}
	}
	return true
}

func isHealthEndpoint(path string) bool {
	switch path {
	case "/livez", "/readyz", "/healthz":
		return true
	}
	return false
}

func outcomeFromStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return OutcomeSuccess
	case code == http.StatusForbidden:
		return OutcomeDenied
	default:
		return OutcomeFailure
	}
}
