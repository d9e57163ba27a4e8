package lsp

import (
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/JaimeStill/speechmark/internal/labels"
)

// Method names handled by the server.
const (
	MethodInitialize             = "initialize"
	MethodInitialized            = "initialized"
	MethodShutdown               = "shutdown"
	MethodExit                   = "exit"
	MethodCancelRequest          = "$/cancelRequest"
	MethodDidOpen                = "textDocument/didOpen"
	MethodDidChange              = "textDocument/didChange"
	MethodDidClose               = "textDocument/didClose"
	MethodSemanticTokensFull     = "textDocument/semanticTokens/full"
	MethodDidChangeConfiguration = "workspace/didChangeConfiguration"
)

// TextDocumentSyncFull asks clients to send the whole document on change.
const TextDocumentSyncFull = 1

// CodeRequestCancelled is the LSP error code for cancelled requests.
const CodeRequestCancelled int64 = -32800

type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int32  `json:"version"`
}

type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int32  `json:"version"`
	Text       string `json:"text"`
}

type DidOpenParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// ContentChange carries one change event. Only full-content changes,
// those without a range, are accepted.
type ContentChange struct {
	Range *json.RawMessage `json:"range,omitempty"`
	Text  string           `json:"text"`
}

type DidChangeParams struct {
	TextDocument   VersionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []ContentChange                 `json:"contentChanges"`
}

type DidCloseParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type SemanticTokensParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type SemanticTokens struct {
	Data []uint32 `json:"data"`
}

// Options is the shape of initializationOptions and of the settings sent
// with workspace/didChangeConfiguration.
type Options struct {
	TokenMap json.RawMessage `json:"tokenMap,omitempty"`
}

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type InitializeParams struct {
	ProcessID             *int        `json:"processId"`
	ClientInfo            *ClientInfo `json:"clientInfo,omitempty"`
	InitializationOptions *Options    `json:"initializationOptions,omitempty"`
}

type DidChangeConfigurationParams struct {
	Settings *Options `json:"settings"`
}

type CancelParams struct {
	ID jsonrpc2.ID `json:"id"`
}

type SemanticTokensOptions struct {
	Legend labels.Legend `json:"legend"`
	Full   bool          `json:"full"`
	Range  bool          `json:"range"`
}

type ServerCapabilities struct {
	TextDocumentSync       int                   `json:"textDocumentSync"`
	SemanticTokensProvider SemanticTokensOptions `json:"semanticTokensProvider"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}
