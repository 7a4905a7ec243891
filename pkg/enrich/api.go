package enrich

// Request bodies of the HTTP API served by `storyboard serve`. Field names
// follow the browser client the API was first written for.
type (
	SearchRequest struct {
		Query string `json:"query" validate:"required,max=512"`
	}
	VisualizeRequest struct {
		Prompt string `json:"prompt" validate:"required,max=4000"`
	}
	CompleteRequest struct {
		Model  string `json:"model" validate:"required"`
		Prompt string `json:"prompt" validate:"required,max=4000"`
	}
	ExpandRequest struct {
		Model   string `json:"model" validate:"required"`
		Concept string `json:"concept" validate:"required,max=4000"`
	}
	ExportRequest struct {
		Report string `json:"all_node_text" validate:"required"`
	}
)
