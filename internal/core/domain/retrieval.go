package domain

// DocumentRef is a stable handle to one corpus document. Path identifies the
// document inside its store; Name is the human-readable basename used in
// citations.
type DocumentRef struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// Source is one retrieved excerpt. Similarity is the retrieval confidence in
// [0,1]. Several Sources may reference the same document with different
// snippets; order inside a slice is rank order.
type Source struct {
	Document   DocumentRef `json:"document"`
	Similarity float64     `json:"similarity"`
	Content    string      `json:"content"`
}

// Candidate is the generalized scoring record used by MMR reranking. It
// supports embedding-based similarity when both sides carry vectors and
// token-overlap similarity otherwise. Origin points back at the retrieved
// Source the candidate was built from.
type Candidate struct {
	Score     float64
	Content   string
	Embedding []float32
	Origin    *Source
}

// ChatMessage is one turn of a model conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// RAGResult is the outcome of one pipeline invocation. ReflectionRounds is
// the number of completed critique/re-retrieve iterations, capped at the
// reflector's round limit.
type RAGResult struct {
	Answer           string   `json:"answer"`
	Sources          []Source `json:"sources"`
	ReflectionRounds int      `json:"reflection_rounds"`
}
