// =============================================================================
// Lambda: feed-digest
// =============================================================================
//
// RSSフィードの昨日の記事を要約し、ダイジェストメールを配信するLambda関数
//
// 環境変数:
//   - RSS_FEED_URL:            収集するRSSフィードのURL (必須)
//   - RSS_FEED_SUMMARY_LENGTH: 要約の長さ Short/Medium/Long (必須)
//   - OPENAI_API_KEY:          OpenAI APIキー (必須)
//   - SMTP_SERVER:             SMTPサーバーホスト名 (必須)
//   - SMTP_PORT:               SMTPポート番号 (必須)
//   - SMTP_USER:               SMTP認証ユーザー (必須)
//   - SMTP_PASSWORD:           SMTP認証パスワード (必須)
//   - SENDER_EMAIL:            送信元メールアドレス (必須)
//   - RECIPIENT_EMAIL:         送信先メールアドレス、カンマ区切り (必須)
//   - NOTION_TOKEN:            Notion API Token (任意)
//   - NOTION_DATABASE_ID:      NotionデータベースID (任意)
//
// NOTION_TOKEN と NOTION_DATABASE_ID が両方設定されている場合のみ、
// 生成した要約をNotionデータベースにアーカイブする。
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"feed-digest/internal/digest"
)

// Response はLambdaレスポンス
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Selected   int    `json:"selected"`
	Summarized int    `json:"summarized"`
	Failed     int    `json:"failed"`
}

// Handler はLambdaのメインハンドラー
func Handler(ctx context.Context, event interface{}) (Response, error) {
	log.Println("Starting feed-digest Lambda...")

	// 1. 環境変数から設定を読み込む
	cfg, err := digest.LoadConfig()
	if err != nil {
		log.Printf("Error loading configuration: %v", err)
		return Response{StatusCode: 400, Message: err.Error()}, err
	}

	log.Printf("Config: feed=%s, summaryLength=%s, recipients=%d",
		cfg.Feed.URL, cfg.Feed.SummaryLength, len(cfg.SMTP.To))

	// 2. パイプラインを構築
	runner, err := digest.NewRunner(cfg)
	if err != nil {
		log.Printf("Error building pipeline: %v", err)
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	// Notion設定が揃っている場合のみアーカイブを有効化
	if cfg.Notion.Enabled() {
		archiver, err := digest.NewNotionArchiver(cfg.Notion.Token, cfg.Notion.DatabaseID)
		if err != nil {
			log.Printf("Error creating Notion archiver: %v", err)
			return Response{StatusCode: 500, Message: err.Error()}, err
		}
		runner.Archiver = archiver
		log.Println("Notion archiving enabled")
	}

	// 3. 実行（収集 → 選択 → 要約 → 配信 → アーカイブ）
	result, err := runner.Run(ctx)
	if err != nil {
		log.Printf("Error running digest pipeline: %v", err)
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	// 記事単位の失敗はログに記録するだけで、実行全体は成功扱い
	if len(result.Failures) > 0 {
		log.Printf("WARNING: %d article(s) skipped:", len(result.Failures))
		for _, f := range result.Failures {
			log.Printf("  %s: %s", f.Title, f.Reason)
		}
	}

	selected := len(result.Summaries) + len(result.Failures)
	log.Printf("Digest sent: %d of %d articles summarized", len(result.Summaries), selected)

	return Response{
		StatusCode: 200,
		Message:    fmt.Sprintf("Successfully sent digest with %d of %d article summaries", len(result.Summaries), selected),
		Selected:   selected,
		Summarized: len(result.Summaries),
		Failed:     len(result.Failures),
	}, nil
}

func main() {
	lambda.Start(Handler)
}
