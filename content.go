package gemkit

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Roles a Content may carry.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Content is one turn of a conversation: a role and its ordered parts.
type Content struct {
	Role  string  `json:"role,omitempty"`
	Parts []*Part `json:"parts,omitempty"`
}

// Part is a single piece of content. Exactly one field is expected to be set.
type Part struct {
	Text             string            `json:"text,omitempty"`
	Thought          bool              `json:"thought,omitempty"`
	InlineData       *Blob             `json:"inlineData,omitempty"`
	FileData         *FileData         `json:"fileData,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// Blob is raw media sent inline.
type Blob struct {
	Data     []byte `json:"data,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
}

// UnmarshalJSON accepts data in either the standard or the URL-safe base64
// alphabet, since the two backends encode differently.
func (b *Blob) UnmarshalJSON(data []byte) error {
	var raw struct {
		Data      string `json:"data"`
		MIMEType  string `json:"mimeType"`
		MIMEType2 string `json:"mime_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.MIMEType = raw.MIMEType
	if b.MIMEType == "" {
		b.MIMEType = raw.MIMEType2
	}
	decoded, err := DecodeBase64(raw.Data)
	if err != nil {
		return fmt.Errorf("blob data: %w", err)
	}
	b.Data = decoded
	return nil
}

// DecodeBase64 decodes s in the standard or URL-safe alphabet, padded or not.
func DecodeBase64(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	enc := base64.StdEncoding
	if strings.ContainsAny(s, "-_") {
		enc = base64.URLEncoding
	}
	if !strings.HasSuffix(s, "=") && len(s)%4 != 0 {
		enc = enc.WithPadding(base64.NoPadding)
	}
	return enc.DecodeString(s)
}

// FileData references media previously uploaded through the files service.
type FileData struct {
	FileURI  string `json:"fileUri,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
}

// FunctionCall is a tool invocation requested by the model.
type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name,omitempty"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse answers a FunctionCall. ID echoes the call's id.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name,omitempty"`
	Response map[string]any `json:"response,omitempty"`
}

// File describes an uploaded file as returned by the files service.
type File struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
	SizeBytes   string `json:"sizeBytes,omitempty"`
	URI         string `json:"uri,omitempty"`
	State       string `json:"state,omitempty"`
}

// NewTextPart creates a text part.
func NewTextPart(text string) *Part {
	return &Part{Text: text}
}

// NewBlobPart creates an inline media part.
func NewBlobPart(data []byte, mimeType string) *Part {
	return &Part{InlineData: &Blob{Data: data, MIMEType: mimeType}}
}

// NewUserContent wraps parts in a user turn.
func NewUserContent(parts ...*Part) *Content {
	return &Content{Role: RoleUser, Parts: parts}
}

// Text concatenates the text parts of c.
func (c *Content) Text() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Parts {
		if p != nil && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
