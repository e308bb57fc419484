package llm

const (
	SystemPrompt = "You are an expert at classifying documents and understanding their contents."
	UserPrompt   = "Analyze this image and provide the document_type and notes on the content."
)

// SchemaName is the name the response format is registered under.
const SchemaName = "document_analysis"
