package documents

import "github.com/JaimeStill/speechmark/pkg/openapi"

var keyParam = openapi.QueryParam("key", "string", "Document key", true)

var docsOps = struct {
	List   *openapi.Operation
	Status *openapi.Operation
	Tokens *openapi.Operation
	Revise *openapi.Operation
	Forget *openapi.Operation
}{
	List: &openapi.Operation{
		OperationID: "listDocuments",
		Summary:     "List tracked documents",
		Parameters:  openapi.PageParams(),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Paginated document statuses", "DocumentStatusPage"),
			503: openapi.ResponseRef("Unavailable"),
		},
	},
	Status: &openapi.Operation{
		OperationID: "getDocumentStatus",
		Summary:     "Inspect one document",
		Parameters:  []*openapi.Parameter{keyParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document status", "DocumentStatus"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			503: openapi.ResponseRef("Unavailable"),
		},
	},
	Tokens: &openapi.Operation{
		OperationID: "getDocumentTokens",
		Summary:     "Wait for semantic tokens",
		Description: "Answers immediately when the latest classification is stored, otherwise waits for the next one. At most two requests wait per document; an older waiting request may be answered without a value.",
		Parameters:  []*openapi.Parameter{keyParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Delta-encoded semantic tokens", "SemanticTokens"),
			204: openapi.ResponseEmpty("Request closed without an answer or timed out"),
			400: openapi.ResponseRef("BadRequest"),
			503: openapi.ResponseRef("Unavailable"),
		},
	},
	Revise: &openapi.Operation{
		OperationID: "reviseDocument",
		Summary:     "Submit a full-text revision",
		RequestBody: openapi.RequestBodyJSON("Revision", true),
		Responses: map[int]*openapi.Response{
			202: openapi.ResponseJSON("Revision accepted", "Revision"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Forget: &openapi.Operation{
		OperationID: "forgetDocument",
		Summary:     "Stop tracking a document",
		RequestBody: openapi.RequestBodyJSON("ForgetRequest", true),
		Responses: map[int]*openapi.Response{
			202: openapi.ResponseJSON("Document forgotten", "ForgetRequest"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
}

// Schemas returns the component schemas referenced by document routes.
func Schemas() map[string]*openapi.Schema {
	version := &openapi.Schema{Type: "integer", Format: "int32"}
	status := &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"key":        {Type: "string"},
			"latest":     {Type: "integer", Format: "int32", Description: "Highest accepted revision"},
			"version":    {Type: "integer", Format: "int32", Description: "Version of the stored classification"},
			"queued":     {Type: "integer", Format: "int32", Description: "Revision waiting for the in-flight classification"},
			"processing": {Type: "boolean"},
			"pending":    {Type: "integer", Description: "Waiting token requests"},
			"spans":      {Type: "integer", Description: "Spans in the stored classification"},
		},
	}

	return map[string]*openapi.Schema{
		"Revision": {
			Type:     "object",
			Required: []string{"key", "text", "version"},
			Properties: map[string]*openapi.Schema{
				"key":     {Type: "string", Description: "Document key, usually a URI"},
				"text":    {Type: "string", Description: "Full document text"},
				"version": version,
			},
		},
		"ForgetRequest": {
			Type:       "object",
			Required:   []string{"key"},
			Properties: map[string]*openapi.Schema{"key": {Type: "string"}},
		},
		"SemanticTokens": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data": {
					Type:        "array",
					Description: "Groups of five: deltaLine, deltaStart, length, tokenType, tokenModifiers",
					Items:       &openapi.Schema{Type: "integer", Format: "int32"},
				},
			},
		},
		"DocumentStatus": status,
		"DocumentStatusPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("DocumentStatus")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
	}
}
