package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

// promptHistoryDays caps how many recent closes are sent to the model.
const promptHistoryDays = 260

const systemInstruction = `You are a quantitative analyst. Given daily closing prices of a security,
produce a daily price forecast with an 80% confidence interval.
Answer with JSON only, shaped as:
{"forecast":[{"date":"YYYY-MM-DD","value":0,"lower":0,"upper":0}],"commentary":"markdown"}
The commentary is two or three short paragraphs of markdown explaining the trend.`

// generator is the part of the genai client used by GeminiModel.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiModel asks a Gemini model for the forecast.
type GeminiModel struct {
	models generator
	model  string
	log    zerolog.Logger
}

// NewGeminiModel creates a Gemini-backed model.
func NewGeminiModel(ctx context.Context, apiKey, model string, log zerolog.Logger) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiModel(client.Models, model, log), nil
}

func newGeminiModel(models generator, model string, log zerolog.Logger) *GeminiModel {
	return &GeminiModel{
		models: models,
		model:  model,
		log:    log.With().Str("client", "gemini").Logger(),
	}
}

// Name identifies the model in results.
func (m *GeminiModel) Name() string { return m.model }

type geminiAnswer struct {
	Forecast []struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
		Lower float64 `json:"lower"`
		Upper float64 `json:"upper"`
	} `json:"forecast"`
	Commentary string `json:"commentary"`
}

// Predict sends recent closes to the model and parses its JSON answer.
func (m *GeminiModel) Predict(ctx context.Context, history domain.PriceHistory, horizon int) (*Prediction, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
	}
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: buildPrompt(history, horizon)}},
	}}

	resp, err := m.models.GenerateContent(ctx, m.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no content")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	var answer geminiAnswer
	if err := json.Unmarshal([]byte(stripFence(text.String())), &answer); err != nil {
		return nil, fmt.Errorf("failed to decode gemini answer: %w", err)
	}

	pred := &Prediction{Commentary: strings.TrimSpace(answer.Commentary)}
	for i, row := range answer.Forecast {
		ds, err := parseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("forecast row %d: %w", i, err)
		}
		pred.Points = append(pred.Points, Point{Date: ds, Value: row.Value, Lower: row.Lower, Upper: row.Upper})
	}
	if len(pred.Points) > horizon {
		pred.Points = pred.Points[:horizon]
	}

	m.log.Debug().Str("ticker", history.Ticker).Int("points", len(pred.Points)).Msg("Gemini forecast")
	return pred, nil
}

func buildPrompt(history domain.PriceHistory, horizon int) string {
	points := history.Points
	if len(points) > promptHistoryDays {
		points = points[len(points)-promptHistoryDays:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Ticker: %s\n", history.Ticker)
	if history.Currency != "" {
		fmt.Fprintf(&b, "Currency: %s\n", history.Currency)
	}
	fmt.Fprintf(&b, "Forecast the next %d calendar days starting after the last date.\n", horizon)
	b.WriteString("date,close\n")
	for _, p := range points {
		fmt.Fprintf(&b, "%s,%.4f\n", p.Date.Format(dateLayout), p.Close)
	}
	return b.String()
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
