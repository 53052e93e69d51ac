package gemini

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/seu-repo/rentmap-voice/internal/domain"
	"github.com/seu-repo/rentmap-voice/internal/ports"
)

const DefaultModel = "gemini-2.5-flash"

var ErrNoAPIKey = errors.New("gemini: API key not configured")

// Client is a ports.LanguageModel backed by the Gemini API. The underlying
// SDK client is created on first use so a missing key only fails requests.
type Client struct {
	apiKey string
	model  string
	logger *zap.Logger

	mu     sync.Mutex
	client *genai.Client
}

func NewClient(apiKey, model string, logger *zap.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		logger: logger,
	}
}

func (c *Client) sdk(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	c.client = client
	return client, nil
}

func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return "", err
	}

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		var role genai.Role = genai.RoleUser
		if turn.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.JSONOutput {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = IntentSchema()
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if resp.UsageMetadata != nil {
		c.logger.Debug("Gemini completion",
			zap.String("model", c.model),
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("output_tokens", resp.UsageMetadata.CandidatesTokenCount),
		)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return text, nil
}

// IntentSchema constrains the model output to the resolved intent shape.
func IntentSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	num := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeNumber, Description: desc}
	}

	intents := make([]string, len(domain.Intents))
	for i, in := range domain.Intents {
		intents[i] = string(in)
	}
	actions := make([]string, len(domain.ActionTypes))
	for i, a := range domain.ActionTypes {
		actions[i] = string(a)
	}
	views := make([]string, 0, len(domain.Views)+2)
	for _, v := range domain.Views {
		views = append(views, string(v))
	}
	views = append(views, string(domain.ModalAddProperty), string(domain.ModalAddProfessional))

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"intent":           {Type: genai.TypeString, Enum: intents},
			"responseText":     str("Respuesta breve para leer en voz alta"),
			"requiresFollowUp": {Type: genai.TypeBoolean},
			"data": {
				Type:     genai.TypeObject,
				Nullable: genai.Ptr(true),
				Properties: map[string]*genai.Schema{
					"targetView":       {Type: genai.TypeString, Enum: views},
					"address":          str("Dirección mencionada"),
					"query":            str("Texto de búsqueda en el mapa"),
					"itemType":         {Type: genai.TypeString, Enum: []string{string(domain.ItemProperty), string(domain.ItemProfessional)}},
					"itemId":           str("ID del elemento a seleccionar"),
					"propertyId":       str("ID de la propiedad"),
					"actionType":       {Type: genai.TypeString, Enum: actions},
					"newRent":          num("Nuevo alquiler mensual"),
					"newTenant":        str("Nombre del nuevo inquilino"),
					"professionalId":   str("ID del profesional"),
					"professionalName": str("Nombre del profesional"),
					"taskDescription":  str("Tarea de mantenimiento"),
					"noteContent":      str("Contenido de la nota"),
					"amount":           num("Monto del gasto"),
					"description":      str("Descripción del gasto"),
					"contactName":      str("Nombre del contacto"),
					"phoneNumber":      str("Teléfono del contacto"),
				},
			},
		},
		Required: []string{"intent", "responseText", "requiresFollowUp"},
	}
}
