package swaggerkit

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
)

// Op documents one route
type Op struct {
	Method  string
	Path    string
	Summary string
	// Body names the request schema; empty means no body
	Body string
	// Stream marks text/event-stream responses
	Stream bool
}

// Group is a module's routes under a shared prefix and tag
type Group struct {
	Tag    string
	Prefix string
	Ops    []Op
}

// Info heads the document
type Info struct {
	Title   string
	Version string
}

var envelopeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"status_code": map[string]any{"type": "integer"},
		"status":      map[string]any{"type": "string"},
		"code":        map[string]any{"type": "integer", "description": "error code, absent on success"},
		"error":       map[string]any{"type": "string"},
		"field":       map[string]any{"type": "string"},
		"request_id":  map[string]any{"type": "string"},
		"data":        map[string]any{},
	},
	"required": []string{"status_code", "status"},
}

func envelopeRef(desc string) map[string]any {
	return map[string]any{
		"description": desc,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/Envelope"},
			},
		},
	}
}

func operation(g Group, op Op) map[string]any {
	ok := envelopeRef("ok")
	if op.Stream {
		ok = map[string]any{
			"description": "server sent events",
			"content":     map[string]any{"text/event-stream": map[string]any{"schema": map[string]any{"type": "string"}}},
		}
	}
	out := map[string]any{
		"tags":    []string{g.Tag},
		"summary": op.Summary,
		"responses": map[string]any{
			"200":     ok,
			"default": envelopeRef("error envelope"),
		},
	}
	if op.Body != "" {
		out["requestBody"] = map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"type": "object", "title": op.Body},
				},
			},
		}
		out["responses"].(map[string]any)["400"] = envelopeRef("malformed or invalid body")
	}
	return out
}

// Document renders an OpenAPI 3 document for the mounted groups
func Document(info Info, groups ...Group) map[string]any {
	paths := map[string]any{}
	var tags []string
	for _, g := range groups {
		tags = append(tags, g.Tag)
		for _, op := range g.Ops {
			p := strings.TrimSuffix(g.Prefix, "/") + op.Path
			item, _ := paths[p].(map[string]any)
			if item == nil {
				item = map[string]any{}
				paths[p] = item
			}
			item[strings.ToLower(op.Method)] = operation(g, op)
		}
	}
	sort.Strings(tags)

	tagList := make([]map[string]any, 0, len(tags))
	for _, t := range tags {
		tagList = append(tagList, map[string]any{"name": t})
	}
	return map[string]any{
		"openapi":    "3.0.3",
		"info":       map[string]any{"title": info.Title, "version": info.Version},
		"servers":    []map[string]any{{"url": "/"}},
		"tags":       tagList,
		"paths":      paths,
		"components": map[string]any{"schemas": map[string]any{"Envelope": envelopeSchema}},
	}
}

func serveDocJSON(doc map[string]any) http.HandlerFunc {
	body, err := json.Marshal(doc)
	return func(w http.ResponseWriter, _ *http.Request) {
		if err != nil {
			http.Error(w, "openapi document unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(body)
	}
}
