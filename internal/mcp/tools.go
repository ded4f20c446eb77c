package mcp

// Tool names.
const (
	ToolSearch     = "search_knowledge_base"
	ToolTopic      = "get_topic_details"
	ToolListTopics = "list_topics"
	ToolReload     = "reload_knowledge_base"
	ToolStatus     = "kb_status"
)

// SearchInput defines the input schema for the search_knowledge_base tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"the customer's question or search query"`
	NumResults int    `json:"num_results,omitempty" jsonschema:"number of results to return, default 3, max 10"`
}

// TopicInput defines the input schema for the get_topic_details tool.
type TopicInput struct {
	Topic string `json:"topic" jsonschema:"the topic label to retrieve, e.g. card_activation"`
}

// ListTopicsInput defines the input schema for the list_topics tool.
type ListTopicsInput struct {
	Category string `json:"category,omitempty" jsonschema:"optional category filter, e.g. payment, dispute, fraud"`
}

// EmptyInput is the input schema for tools without parameters.
type EmptyInput struct{}

// toolDescriptions is shared by ListTools and registration.
var toolDescriptions = []ToolInfo{
	{
		Name:        ToolSearch,
		Description: "Search the support knowledge base for procedures and answers relevant to a customer question. Returns the most relevant records with their answer and the first paragraphs of detail.",
	},
	{
		Name:        ToolTopic,
		Description: "Get the complete record for a specific topic. Suggests similar topics when the label does not exist.",
	},
	{
		Name:        ToolListTopics,
		Description: "List the topics available in the knowledge base, optionally restricted to one category.",
	},
	{
		Name:        ToolReload,
		Description: "Re-read the knowledge base source files and rebuild the index. The previous data keeps serving if the reload fails.",
	},
	{
		Name:        ToolStatus,
		Description: "Report knowledge base readiness, source and index sizes, cache effectiveness and query telemetry as JSON.",
	},
}
