// Package gemini calls the Gemini generateContent API for the creative
// tools. It never fails the caller: without an API key it answers with a
// canned demonstration text, and on request errors it answers with an
// apology, so a broken generation can never corrupt entitlement state.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oyasudev/oyasify/internal/config"
)

type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        *slog.Logger
}

// Params describe one generation request. Everything besides Prompt is
// optional flavoring.
type Params struct {
	Prompt       string
	Style        string
	Mood         string
	BPM          string
	KeySignature string
	ToolName     string
}

func NewClient(cfg config.Config, log *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:  cfg.GeminiAPIKey,
		baseURL: strings.TrimRight(cfg.GeminiBaseURL, "/"),
		model:   cfg.GeminiModel,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

const demoResponse = `Modo de demonstração: A funcionalidade de IA está desativada porque a API Key não foi configurada.

(Verso 1)
No mundo digital, sem chave pra ligar
Oyasify dorme, sem canção pra mostrar
Um gerador potente, em modo de espera
Sonhando com os versos da nova era.

(Refrão)
Oh, modo de demonstração, tela sem cor
Me dê a API Key, por favor!
Quero criar hits, sentir a emoção
Mas sem a chave, só resta a simulação.`

const failureResponse = "Ocorreu um erro ao tentar gerar o conteúdo. Por favor, tente novamente."

// Generate returns the model answer, the demo text when unconfigured, or the
// apology text when the call fails.
func (c *Client) Generate(ctx context.Context, params Params) string {
	if c.apiKey == "" {
		return demoResponse
	}

	text, err := c.generateContent(ctx, c.buildPrompt(params))
	if err != nil {
		c.log.Error("gemini generate", "tool", params.ToolName, "err", err)
		return failureResponse
	}
	return text
}

func (c *Client) buildPrompt(params Params) string {
	if params.ToolName == "Oyasify AI" {
		return fmt.Sprintf("Você é 'Oyasify AI', um assistente de IA geral e prestativo. Responda à pergunta do usuário de forma concisa e útil. Pergunta do usuário: %q", params.Prompt)
	}

	tool := params.ToolName
	if tool == "" {
		tool = "Gerador de Conteúdo"
	}
	return fmt.Sprintf(`Você é 'Oyasify', um assistente de IA especialista em criação musical.
Sua tarefa é usar a ferramenta %q.

Detalhes da Requisição do Usuário:
- Pedido: %s
- Estilo Musical: %s
- Humor/Vibe: %s
- BPM: %s
- Tonalidade: %s

Gere uma resposta criativa, útil e bem formatada.`,
		tool,
		params.Prompt,
		orUnspecified(params.Style),
		orUnspecified(params.Mood),
		orUnspecified(params.BPM),
		orUnspecified(params.KeySignature),
	)
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) generateContent(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini api: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini status %d", resp.StatusCode)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty gemini response")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func orUnspecified(v string) string {
	if strings.TrimSpace(v) == "" {
		return "Não especificado"
	}
	return v
}
