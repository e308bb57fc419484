package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/doc-classifier/internal/common"
	"github.com/joseph-ayodele/doc-classifier/internal/llm"
)

// Classify sends the normalized image with the fixed prompt pair and a strict
// json_schema response format, then validates and decodes the answer.
func (c *Client) Classify(ctx context.Context, req llm.ClassifyRequest) (llm.ClassifyResult, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	c.logger.Info("llm.classify.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"filename", req.Filename,
		"media_type", req.Image.MediaType,
		"image_b64_len", len(req.Image.Base64),
		"detail", c.cfg.ImageDetail,
	)

	if req.Image.Base64 == "" || req.Image.MediaType == "" {
		return llm.ClassifyResult{}, common.NewAppError("LLM_BAD_REQUEST", "image payload is empty", common.ErrInvalidInput)
	}

	ccReq := goopenai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.SystemPrompt},
			{
				Role: goopenai.ChatMessageRoleUser,
				MultiContent: []goopenai.ChatMessagePart{
					{Type: goopenai.ChatMessagePartTypeText, Text: llm.UserPrompt},
					{
						Type: goopenai.ChatMessagePartTypeImageURL,
						ImageURL: &goopenai.ChatMessageImageURL{
							URL:    req.Image.DataURL(),
							Detail: goopenai.ImageURLDetail(c.cfg.ImageDetail),
						},
					},
				},
			},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
				Name:   llm.SchemaName,
				Schema: mustJSON(c.schema),
				Strict: true,
			},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, ccReq)
	if err != nil {
		err = classifyAPIError(err)
		c.logger.Error("llm.classify.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ClassifyResult{}, err
	}

	result := llm.ClassifyResult{
		Model:     resp.Model,
		RequestID: rid,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	upstreamID, processingMS := upstreamHeaders(resp.Header())

	if len(resp.Choices) == 0 {
		c.logger.Error("llm.classify.no_choices",
			"req_id", rid, "upstream_request_id", upstreamID,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return result, fmt.Errorf("%w: no choices in openai response", llm.ErrSchema)
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		c.logger.Warn("llm.classify.refused",
			"req_id", rid, "refusal", msg.Refusal,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return result, fmt.Errorf("%w: %s", llm.ErrRefused, msg.Refusal)
	}

	content := []byte(strings.TrimSpace(msg.Content))
	result.RawContent = content

	if err := c.validator.Validate(content); err != nil {
		if !c.cfg.Lenient {
			c.logger.Error("llm.classify.schema_validation_failed",
				"req_id", rid, "error", err, "content", string(content),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return result, err
		}
		cleaned, changes, sErr := llm.NormalizeAnalysisJSON(content, c.logger)
		if sErr != nil {
			c.logger.Error("llm.classify.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return result, fmt.Errorf("%w: %v", llm.ErrSchema, sErr)
		}
		if vErr := c.validator.Validate(cleaned); vErr != nil {
			c.logger.Error("llm.classify.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(content),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return result, vErr
		}
		c.logger.Warn("llm.classify.lenient_sanitize_applied",
			"req_id", rid, "changes", changes,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		content = cleaned
		result.RawContent = cleaned
	}

	if err := json.Unmarshal(content, &result.Analysis); err != nil {
		c.logger.Error("llm.classify.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return result, fmt.Errorf("%w: unmarshal analysis: %v", llm.ErrSchema, err)
	}

	c.logger.Info("llm.classify.ok",
		"req_id", rid,
		"upstream_request_id", upstreamID,
		"processing_ms", processingMS,
		"document_type", result.Analysis.DocumentType,
		"prompt_tokens", result.Usage.PromptTokens,
		"completion_tokens", result.Usage.CompletionTokens,
		"total_tokens", result.Usage.TotalTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// classifyAPIError maps go-openai errors onto our sentinels, keeping the original.
func classifyAPIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", llm.ErrTransport, err)
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %w", llm.ErrRateLimited, err)
		}
		return fmt.Errorf("%w: status %d: %w", llm.ErrTransport, apiErr.HTTPStatusCode, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %w", llm.ErrRateLimited, err)
		}
		return fmt.Errorf("%w: status %d: %w", llm.ErrTransport, reqErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("%w: %w", llm.ErrTransport, err)
}

func upstreamHeaders(h http.Header) (string, int64) {
	if h == nil {
		return "", 0
	}
	ms, _ := strconv.ParseInt(h.Get("openai-processing-ms"), 10, 64)
	return h.Get("x-request-id"), ms
}
