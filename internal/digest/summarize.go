// =============================================================================
// summarize.go - OpenAI要約モジュール
// =============================================================================
//
// このファイルはOpenAI Chat Completions APIを使用して記事本文を要約します。
//
// 【リクエストの構造】
//
//	{
//	  "model": "gpt-3.5-turbo",
//	  "messages": [
//	    {"role": "system", "content": "You are a helpful assistant ..."},
//	    {"role": "user",   "content": "Summarize the following article:\n\n..."}
//	  ],
//	  "max_tokens": 1000,
//	  "temperature": 0.7
//	}
//
// max_tokensはRSS_FEED_SUMMARY_LENGTH（Short/Medium/Long）から決まる。
// temperatureは固定値0.7。
//
// 【デバッグ方法】
//
//	DEBUG_OPENAI_FULL=1 - 完全なレスポンスJSONを標準エラー出力に出力
//
// 【初心者向けポイント】
//   - 外部APIを呼び出す際は必ずタイムアウトを設定（ここでは60秒）
//   - レスポンスのJSON構造を事前に定義（構造体で受け取る）
//   - リクエストにはcontextを渡し、呼び出し元から中断できるようにする
//
// =============================================================================
package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// openAIChatCompletionsURL はChat Completions APIのエンドポイント
const openAIChatCompletionsURL = "https://api.openai.com/v1/chat/completions"

// summarySystemPrompt は要約時のシステムプロンプト
const summarySystemPrompt = "You are a helpful assistant that summarizes articles."

// summaryUserPromptPrefix はユーザープロンプトの固定プレフィックス
const summaryUserPromptPrefix = "Summarize the following article:\n\n"

// summaryTemperature は要約生成時のtemperature（固定）
const summaryTemperature = 0.7

// =============================================================================
// Chat Completions API レスポンス構造体
// =============================================================================

// chatCompletionResp は Chat Completions API の最上位レスポンス
type chatCompletionResp struct {
	Choices []chatCompletionChoice `json:"choices"` // 生成候補の配列
}

// chatCompletionChoice は choices配列の各要素
type chatCompletionChoice struct {
	Message chatCompletionMessage `json:"message"` // 生成されたメッセージ
}

// chatCompletionMessage は生成されたメッセージ本体
type chatCompletionMessage struct {
	Role    string `json:"role"`    // "assistant"
	Content string `json:"content"` // 要約テキスト
}

// =============================================================================
// OpenAISummarizer
// =============================================================================

// OpenAISummarizer はOpenAI Chat Completions APIによる要約クライアント
type OpenAISummarizer struct {
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	client    *http.Client
}

// NewOpenAISummarizer は設定から要約クライアントを作成する
func NewOpenAISummarizer(cfg *Config) *OpenAISummarizer {
	return &OpenAISummarizer{
		apiKey:    cfg.OpenAI.APIKey,
		model:     cfg.OpenAI.Model,
		maxTokens: cfg.Feed.MaxSummaryTokens,
		baseURL:   openAIChatCompletionsURL,
		client:    &http.Client{Timeout: 60 * time.Second}, // タイムアウト60秒
	}
}

// Summarize は記事本文の要約を生成する
//
// 【処理の流れ】
//  1. リクエストボディの構築
//  2. HTTPリクエストの送信（Bearer認証）
//  3. ステータスコードチェック（300番台以上はエラー、ボディ込みで報告）
//  4. レスポンスのパースと要約テキストの取り出し
//
// 戻り値の要約は前後の空白を除去済み。
func (s *OpenAISummarizer) Summarize(ctx context.Context, articleText string) (string, error) {
	reqBody := map[string]any{
		"model": s.model,
		"messages": []map[string]any{
			{"role": "system", "content": summarySystemPrompt},
			{"role": "user", "content": summaryUserPromptPrefix + articleText},
		},
		"max_tokens":  s.maxTokens,
		"temperature": summaryTemperature,
	}

	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	// HTTPエラーチェック（300番台以上はエラー）
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai chat completions error: %s\n%s", resp.Status, string(bodyBytes))
	}

	if os.Getenv("DEBUG_OPENAI_FULL") != "" {
		fmt.Fprintf(os.Stderr, "[DEBUG] Full OpenAI response:\n%s\n", string(bodyBytes))
	}

	var r chatCompletionResp
	if err := json.Unmarshal(bodyBytes, &r); err != nil {
		return "", fmt.Errorf("failed to parse openai response: %w", err)
	}

	if len(r.Choices) == 0 {
		return "", fmt.Errorf("openai response contained no choices")
	}

	summary := strings.TrimSpace(r.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("openai response contained an empty summary")
	}

	return summary, nil
}
