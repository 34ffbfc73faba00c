package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	genlang "google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/core"
)

// ErrEmptyResponse is returned when the model answered without any
// candidate text.
var ErrEmptyResponse = errors.New("model returned no candidates")

const extractionPrompt = `Analyze this document. Extract: "vendor", "amount", "dueDate" (YYYY-MM-DD, null if not found), "category". Return as minified JSON.`

// GeminiClient implements Extractor, Summarizer and DealFinder against the
// Generative Language API.
type GeminiClient struct {
	svc     *genlang.Service
	model   string
	timeout time.Duration
}

var (
	_ Extractor  = (*GeminiClient)(nil)
	_ Summarizer = (*GeminiClient)(nil)
	_ DealFinder = (*GeminiClient)(nil)
)

// NewGeminiClient creates an API-key authenticated client. model is the
// bare model name, e.g. "gemini-2.5-flash". Every call is bounded by
// timeout.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("missing Gemini API key")
	}
	svc, err := genlang.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("generativelanguage service: %w", err)
	}
	return &GeminiClient{svc: svc, model: model, timeout: timeout}, nil
}

// Extract asks the model for the structured invoice fields of a document.
func (c *GeminiClient) Extract(ctx context.Context, data []byte, mimeType string) (ExtractionResult, error) {
	req := &genlang.GenerateContentRequest{
		Contents: []*genlang.Content{{
			Parts: []*genlang.Part{
				{Text: extractionPrompt},
				{InlineData: &genlang.Blob{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(data),
				}},
			},
		}},
		GenerationConfig: &genlang.GenerationConfig{
			ResponseMimeType: "application/json",
		},
	}

	text, err := c.generate(ctx, req)
	if err != nil {
		return ExtractionResult{}, err
	}
	return decodeExtraction(text)
}

// Summarize generates the coach summary over the user's recent invoices.
func (c *GeminiClient) Summarize(ctx context.Context, sr SummaryRequest) (string, error) {
	snapshot, err := json.Marshal(promptInvoices(sr.Invoices))
	if err != nil {
		return "", fmt.Errorf("marshal invoice snapshot: %w", err)
	}

	name := sr.UserName
	if name == "" {
		name = "there"
	}

	prompt := fmt.Sprintf(`Act as a friendly, encouraging financial coach named 'Fin'.
The user's name is %s. Their monthly budget is ₹%.2f.
Here is a JSON array of their spending over the last 30 days:
%s

Your task is to provide a short, conversational summary (2-3 paragraphs).
1. Start by addressing %s directly. Keep the font simple and refrain from using bold or italics.
2. Mention their total spending and compare it to their budget. Are they on track?
3. Identify their top spending category.
4. Find one simple, actionable insight related to their budget.
5. End with a positive, forward-looking thought.
IMPORTANT: Use gender-neutral pronouns (they/them).`,
		name, float64(sr.BudgetCents)/100, snapshot, name)

	return c.generate(ctx, &genlang.GenerateContentRequest{
		Contents: []*genlang.Content{{Parts: []*genlang.Part{{Text: prompt}}}},
	})
}

// FindDeals searches for better offers using the model's search tool.
func (c *GeminiClient) FindDeals(ctx context.Context, vendor string, amountCents int64, category string) (string, error) {
	prompt := fmt.Sprintf(`Act as a helpful financial assistant in India. The user is currently paying ₹%.2f on %s for a service from %q.
Search for better deals for this service.`,
		float64(amountCents)/100, category, vendor)

	return c.generate(ctx, &genlang.GenerateContentRequest{
		Contents: []*genlang.Content{{Parts: []*genlang.Part{{Text: prompt}}}},
		Tools:    []*genlang.Tool{{GoogleSearch: &genlang.GoogleSearch{}}},
	})
}

func (c *GeminiClient) generate(ctx context.Context, req *genlang.GenerateContentRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.svc.Models.GenerateContent("models/"+c.model, req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return candidateText(resp)
}

func candidateText(resp *genlang.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, part := range content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// decodeExtraction parses the model's JSON answer, tolerating markdown
// code fences that some models wrap around JSON output.
func decodeExtraction(text string) (ExtractionResult, error) {
	text = stripCodeFence(text)

	var result ExtractionResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return ExtractionResult{}, fmt.Errorf("decode extraction result: %w", err)
	}
	return result, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type promptInvoice struct {
	Vendor   string  `json:"vendor"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	DueDate  string  `json:"dueDate,omitempty"`
	Created  string  `json:"createdAt"`
}

func promptInvoices(invoices []core.Invoice) []promptInvoice {
	out := make([]promptInvoice, len(invoices))
	for i, inv := range invoices {
		out[i] = promptInvoice{
			Vendor:   inv.Vendor,
			Amount:   inv.Amount.Units(),
			Category: inv.Category,
			Created:  inv.CreatedAt.Format("2006-01-02"),
		}
		if !inv.DueDate.IsEmpty() {
			out[i].DueDate = inv.DueDate.String()
		}
	}
	return out
}
