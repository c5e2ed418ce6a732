package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AzureProvider implements EmbeddingProvider against an Azure OpenAI
// embeddings deployment.
type AzureProvider struct {
	APIBase    string
	APIKey     string
	Deployment string
	APIVersion string
	Client     *http.Client
}

var _ EmbeddingProvider = &AzureProvider{}

func NewAzureProvider(apiBase, apiKey, deployment, apiVersion string) *AzureProvider {
	return &AzureProvider{
		APIBase:    strings.TrimRight(apiBase, "/"),
		APIKey:     apiKey,
		Deployment: deployment,
		APIVersion: apiVersion,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type azureEmbeddingRequest struct {
	Input string `json:"input"`
}

type azureEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *AzureProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	// taskType has no Azure equivalent, kept for interface compatibility

	jsonBody, err := json.Marshal(azureEmbeddingRequest{Input: text})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s",
		p.APIBase, p.Deployment, p.APIVersion)

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("azure embedding error: %s", string(bodyBytes))
	}

	var azureResp azureEmbeddingResponse
	if err := json.Unmarshal(bodyBytes, &azureResp); err != nil {
		return nil, err
	}
	if len(azureResp.Data) == 0 {
		return nil, fmt.Errorf("azure embedding returned no data")
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			Values: NormalizeVector(azureResp.Data[0].Embedding),
		},
	}, nil
}
