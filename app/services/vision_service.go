// Package services provides external service integrations and technical concerns like tokens and delivery channels
package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mercat-labs/loyalty-platform/config"
	"github.com/mercat-labs/loyalty-platform/models"
)

const visionPrompt = `Analiza esta imagen de un ticket de compra y extrae la siguiente informacion en formato JSON:
{
  "fecha": "DD/MM/YYYY",
  "hora": "HH:MM",
  "tienda": "nombre de la tienda",
  "total": "importe total",
  "tipo_ticket": "tipo de ticket",
  "productos": [{"cantidad": "1", "nombre": "producto", "precio": "0.00"}]
}
Responde unicamente con el objeto JSON. Si un campo no es legible, usa null.`

// ExtractionResult is the parsed output of the vision model for one ticket
// image. Success is false when the call or the parse failed; Error then
// carries a human readable reason.
type ExtractionResult struct {
	Fecha      *string            `json:"fecha"`
	Hora       *string            `json:"hora"`
	Tienda     *string            `json:"tienda"`
	Total      *string            `json:"total"`
	TipoTicket *string            `json:"tipo_ticket"`
	Productos  models.ProductList `json:"productos"`
	Success    bool               `json:"procesado_correctamente"`
	Error      string             `json:"error,omitempty"`
}

// HasStructuralFields reports whether the extraction carries enough data for
// duplicate comparison
func (r *ExtractionResult) HasStructuralFields() bool {
	return r.Success && r.Fecha != nil && len(r.Productos) > 0
}

// VisionService extracts structured purchase data from ticket images
type VisionService interface {
	Extract(ctx context.Context, image []byte, mime string) *ExtractionResult
}

// VisionServiceImpl implements VisionService against a hosted vision model
type VisionServiceImpl struct {
	config *config.VisionConfig
	client *http.Client
}

// NewVisionService creates a new vision service instance
func NewVisionService(cfg *config.VisionConfig) VisionService {
	return &VisionServiceImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type visionRequest struct {
	Contents []visionContent `json:"contents"`
}

type visionContent struct {
	Parts []visionPart `json:"parts"`
}

type visionPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *visionInlineData `json:"inline_data,omitempty"`
}

type visionInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type visionResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Extract sends the image to the vision model and parses the first balanced
// JSON object of the response. Failures are reported inside the result and
// never propagate as errors.
func (s *VisionServiceImpl) Extract(ctx context.Context, image []byte, mime string) *ExtractionResult {
	if mime == "" {
		mime = "image/jpeg"
	}

	payload := visionRequest{
		Contents: []visionContent{{
			Parts: []visionPart{
				{Text: visionPrompt},
				{InlineData: &visionInlineData{
					MimeType: mime,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return extractionFailure(fmt.Sprintf("failed to encode vision request: %v", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", s.config.BaseURL, s.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return extractionFailure(fmt.Sprintf("failed to build vision request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-goog-api-key", s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return extractionFailure(fmt.Sprintf("vision model unreachable: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return extractionFailure(fmt.Sprintf("failed to read vision response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		return extractionFailure(fmt.Sprintf("vision model returned status %d", resp.StatusCode))
	}

	var parsed visionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return extractionFailure(fmt.Sprintf("malformed vision response: %v", err))
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return extractionFailure("vision model returned no candidates")
	}

	return ParseExtraction(parsed.Candidates[0].Content.Parts[0].Text)
}

func extractionFailure(message string) *ExtractionResult {
	return &ExtractionResult{
		Productos: models.ProductList{},
		Success:   false,
		Error:     message,
	}
}

// ParseExtraction locates the first balanced JSON object in the model output
// and normalizes it into an ExtractionResult. Missing fields become nil and
// productos is always a list.
func ParseExtraction(text string) *ExtractionResult {
	object := firstBalancedObject(text)
	if object == "" {
		return extractionFailure("no JSON object found in model output")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(object), &fields); err != nil {
		return extractionFailure(fmt.Sprintf("malformed extraction JSON: %v", err))
	}

	// The model reports its own confidence; absent means success
	success := true
	if flag, ok := fields["procesado_correctamente"].(bool); ok {
		success = flag
	}

	result := &ExtractionResult{
		Fecha:      stringField(fields, "fecha"),
		Hora:       stringField(fields, "hora"),
		Tienda:     stringField(fields, "tienda"),
		Total:      stringField(fields, "total"),
		TipoTicket: stringField(fields, "tipo_ticket"),
		Productos:  productListField(fields, "productos"),
		Success:    success,
	}
	if !success {
		if msg, ok := fields["error"].(string); ok {
			result.Error = msg
		}
	}

	return result
}

// firstBalancedObject returns the first top-level {...} block of the text,
// skipping braces inside JSON strings
func firstBalancedObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}

func stringField(fields map[string]any, key string) *string {
	value, ok := fields[key]
	if !ok || value == nil {
		return nil
	}

	text := scalarToString(value)
	if text == "" {
		return nil
	}

	return &text
}

func productListField(fields map[string]any, key string) models.ProductList {
	value, ok := fields[key]
	if !ok || value == nil {
		return models.ProductList{}
	}

	items, ok := value.([]any)
	if !ok {
		// A single object is coerced to a one-element list
		if single, ok := value.(map[string]any); ok {
			items = []any{single}
		} else {
			return models.ProductList{}
		}
	}

	products := make(models.ProductList, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		products = append(products, models.ProductLine{
			Name:     scalarToString(entry["nombre"]),
			Quantity: scalarToString(entry["cantidad"]),
			Price:    scalarToString(entry["precio"]),
		})
	}

	return products
}

func scalarToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
