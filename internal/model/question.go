package model

// Question is the canonical MCQ shape used everywhere after validation.
// All question sources (paper files, the papers table, the AI generator)
// are normalized into this shape before a session may use them.
type Question struct {
	ID          string   `json:"id,omitempty"`
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// PaperInfo is a registry entry for a selectable paper.
type PaperInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Source        string `json:"source"` // "file" or "db"
	QuestionCount int    `json:"questionCount,omitempty"`
	CreatedBy     string `json:"created_by,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// Paper is a stored community paper with its question payload.
type Paper struct {
	ID        string     `json:"id"`
	Tenant    string     `json:"tenant"`
	Name      string     `json:"name"`
	CreatedBy string     `json:"created_by"`
	Questions []Question `json:"questions"`
	CreatedAt string     `json:"created_at"`
}

// CreatePaperRequest is the payload for submitting a community paper.
type CreatePaperRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=200"`
	UserID    string `json:"userId" binding:"required,min=1,max=100"`
	Tenant    string `json:"tenant" binding:"omitempty,max=100"`
	Questions []any  `json:"questions" binding:"required"`
}

// GenerateRequest is the payload for AI question generation.
type GenerateRequest struct {
	Prompt      string `json:"prompt" binding:"omitempty,max=4000"`
	ImageBase64 string `json:"imageBase64" binding:"omitempty"`
	MimeType    string `json:"mimeType" binding:"omitempty,max=100"`
	Count       int    `json:"count" binding:"omitempty,min=1,max=50"`
}
