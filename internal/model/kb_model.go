package model

// KBMetadata mirrors the metadata.json record stored per knowledge base.
type KBMetadata struct {
	Ntotal     int      `json:"ntotal"`
	ChunkCount int      `json:"chunk_count"`
	CreatedAt  string   `json:"created_at"`
	Files      []string `json:"files"`
}

type KnowledgeBase struct {
	Name string `json:"name"`
	KBMetadata
}
