// Package receipt reads a photographed shopping receipt and extracts the
// merchant, the total and the line items, using Gemini vision.
package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is the default Gemini model used for reading receipts.
const DefaultModelName = "gemini-2.5-flash"

// Item is a single line item on a receipt.
type Item struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Receipt is the structured result of reading one receipt photo.
type Receipt struct {
	Merchant string `json:"merchant"`
	Total    int64  `json:"total"`
	Items    []Item `json:"items"`
}

// DetailText renders the line items for the transaction Detail column.
func (r *Receipt) DetailText() string {
	lines := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, fmt.Sprintf("- %s: Rp %d", it.Name, it.Price))
	}
	return strings.Join(lines, "\n")
}

// Reader parses receipt photos with a Gemini model.
type Reader struct {
	model string
}

// NewReader creates a Reader; an empty model selects DefaultModelName.
func NewReader(model string) *Reader {
	if model == "" {
		model = DefaultModelName
	}
	return &Reader{model: model}
}

const prompt = "You are a receipt parser for Indonesian shop and restaurant receipts.\n\n" +
	"Task:\n" +
	"- Read the attached receipt photo.\n" +
	"- Output STRICT JSON only (no comments, no extra text).\n" +
	"- Output a single JSON object with these fields:\n" +
	"  - \"merchant\": string, the shop or restaurant name, or null\n" +
	"  - \"total\": number, the grand total paid in whole rupiah\n" +
	"  - \"items\": array of {\"name\": string, \"price\": number}\n\n" +
	"Rules:\n" +
	"- Amounts written like \"25.000\" mean twenty-five thousand rupiah.\n" +
	"- Use the grand total after tax and discounts.\n" +
	"- If line items cannot be read, return an empty items array.\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Output must begin with \"{\" and end with \"}\".\n"

// Read sends the photo to the model and decodes its JSON answer.
func (r *Reader) Read(ctx context.Context, photo []byte, mimeType string) (*Receipt, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("receipt.Read: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     photo,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, r.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("receipt.Read: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("receipt.Read: empty response from model")
	}

	rec, err := decode(rawText)
	if err != nil {
		return nil, fmt.Errorf("receipt.Read: %w", err)
	}
	return rec, nil
}

// decode parses the model output, tolerating Markdown fences and stray text
// around the JSON object.
func decode(raw string) (*Receipt, error) {
	clean := cleanModelJSON(raw)

	var wire struct {
		Merchant string  `json:"merchant"`
		Total    float64 `json:"total"`
		Items    []struct {
			Name  string  `json:"name"`
			Price float64 `json:"price"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(clean), &wire); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w\nraw response: %s", err, raw)
	}

	total := int64(math.Round(wire.Total))
	if total <= 0 {
		return nil, fmt.Errorf("receipt total %v is not a positive amount", wire.Total)
	}

	rec := &Receipt{
		Merchant: strings.TrimSpace(wire.Merchant),
		Total:    total,
	}
	for _, it := range wire.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		rec.Items = append(rec.Items, Item{Name: name, Price: int64(math.Round(it.Price))})
	}
	return rec, nil
}

// cleanModelJSON strips code fences and surrounding junk when the model
// ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
