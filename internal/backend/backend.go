// Package backend resolves the configured AI provider and builds the
// task units that run AI and web operations. Operation kinds and
// providers are closed enums matched exhaustively; an unknown
// combination is an unsupported-operation error, never silent fallback.
package backend

// Provider identifies which implementation executes AI operations.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGemini Provider = "gemini"
	ProviderHFAPI  Provider = "hfapi"
)

// OpKind identifies one operation the factory can build a unit for.
type OpKind string

const (
	OpExtractEntities OpKind = "extract_entities"
	OpSearch          OpKind = "web_search"
	OpFetch           OpKind = "web_fetch"
	OpSummarize       OpKind = "summarize"
	OpGenerate        OpKind = "generate"
	OpAnswer          OpKind = "answer"
)
