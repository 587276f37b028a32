// =============================================================================
// main.go - Feed Digest パイプラインのエントリーポイント
// =============================================================================
//
// このプログラムは、RSSフィードの「昨日」の記事をAIで要約し、
// 1通のHTMLダイジェストメールとして配信するCLIツールです。
//
// =============================================================================
// 【処理フロー】
// =============================================================================
//
//   ┌─────────────┐    ┌─────────────┐    ┌─────────────┐
//   │  1. 設定    │ -> │  2. 選択    │ -> │  3. 要約    │
//   │  読み込み   │    │  フィード   │    │  OpenAI API │
//   └─────────────┘    └─────────────┘    └─────────────┘
//          │                  │                  │
//          v                  v                  v
//   .env読み込み        昨日の記事だけ      記事ごとに
//   環境変数の検証      を日付で選択        本文取得→要約
//
//   ┌─────────────┐    ┌─────────────┐
//   │  4. 配信    │ -> │  5. 保存    │
//   │  SMTPSメール│    │  Notion/JSON│
//   └─────────────┘    └─────────────┘
//          │                  │
//          v                  v
//   HTMLダイジェスト    アーカイブ（任意）
//   を1通で送信         実行結果のJSON出力
//
// =============================================================================
// 【CLIフラグ一覧】
// =============================================================================
//
//   -dryRun          メールを送信せず、ダイジェストを標準出力に表示
//   -out             実行結果JSONの出力先ファイルパス（任意）
//   -notionArchive   生成した要約をNotionデータベースに保存
//   -notionPageID    新規データベース作成時の親ページID
//
// =============================================================================
// 【初心者向けポイント】
// =============================================================================
//
// - flag パッケージでCLI引数を解析
// - godotenv パッケージで.envファイルを読み込み
// - エラーと進捗は標準エラー出力（os.Stderr）に出力
// - 標準出力（stdout）はドライランのダイジェスト表示のみに使用
// - 終了コード: 成功時0、中断時1（記事単位のスキップは失敗扱いにしない）
//
// =============================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv" // .env ファイル読み込み

	"feed-digest/internal/digest"
)

// main はダイジェスト実行全体の制御フロー
func main() {
	// .env ファイルから環境変数を読み込み
	// ファイルが存在しない場合はログを出力するが、処理は続行する
	if err := godotenv.Load(); err != nil {
		warnf(".env file not loaded: %v (using environment variables only)", err)
	}

	dryRun := flag.Bool("dryRun", false, "print the digest to stdout instead of sending email")
	outFile := flag.String("out", "", "optional: write the run result JSON to this path")
	notionArchive := flag.Bool("notionArchive", false, "archive produced summaries to a Notion database")
	notionPageID := flag.String("notionPageID", "", "parent page ID for creating a new Notion database (required when NOTION_DATABASE_ID is empty)")
	flag.Parse()

	// --- 1) 設定読み込み ---
	cfg, err := digest.LoadConfig()
	if err != nil {
		fatalf("loading configuration: %v", err)
	}

	// --- 2) Runner構築 ---
	runner, err := digest.NewRunner(cfg)
	if err != nil {
		fatalf("building pipeline: %v", err)
	}
	if *dryRun {
		infof("dry run: the digest will be printed to stdout instead of sent")
		runner.Sender = digest.NewStdoutSender(os.Stdout)
	}

	ctx := context.Background()

	// --- 3) Notionアーカイブの配線（-notionArchive時のみ） ---
	if *notionArchive {
		runner.Archiver = setupNotionArchiver(ctx, cfg, *notionPageID)
	}

	// --- 4) 実行 ---
	result, err := runner.Run(ctx)
	if err != nil {
		fatalf("%v", err)
	}

	// --- 5) 結果の報告 ---
	fmt.Fprintln(os.Stderr, "\n========================================")
	if *dryRun {
		fmt.Fprintf(os.Stderr, "✅ Dry run complete: %d article(s) summarized\n", len(result.Summaries))
	} else {
		fmt.Fprintf(os.Stderr, "✅ Digest sent: %d article(s) summarized\n", len(result.Summaries))
	}
	if len(result.Failures) > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  %d article(s) skipped:\n", len(result.Failures))
		for _, f := range result.Failures {
			fmt.Fprintf(os.Stderr, "  - %s: %s\n", f.Title, f.Reason)
		}
	}
	fmt.Fprintln(os.Stderr, "========================================")

	if *outFile != "" {
		if err := writeJSONFile(*outFile, result); err != nil {
			fatalf("writing output: %v", err)
		}
		infof("run result written to %s", *outFile)
	}
}

// setupNotionArchiver はNotionアーカイバを構築する
// NOTION_DATABASE_IDが空の場合は -notionPageID の下に新規データベースを作成する
func setupNotionArchiver(ctx context.Context, cfg *digest.Config, pageID string) *digest.NotionArchiver {
	if cfg.Notion.Token == "" {
		fatalf("NOTION_TOKEN environment variable is required for Notion archiving")
	}

	archiver, err := digest.NewNotionArchiver(cfg.Notion.Token, cfg.Notion.DatabaseID)
	if err != nil {
		fatalf("creating Notion archiver: %v", err)
	}

	if cfg.Notion.DatabaseID == "" {
		if pageID == "" {
			fatalf("-notionPageID is required when creating a new Notion database")
		}
		fmt.Fprintln(os.Stderr, "Creating new Notion database...")
		dbID, err := archiver.CreateDatabase(ctx, pageID)
		if err != nil {
			fatalf("creating Notion database: %v", err)
		}
		fmt.Fprintf(os.Stderr, "✅ Notion database created: %s\n", dbID)
		fmt.Fprintf(os.Stderr, "Add to your .env for future runs:\nNOTION_DATABASE_ID=%s\n", dbID)
	} else {
		fmt.Fprintf(os.Stderr, "Using existing Notion database: %s\n", cfg.Notion.DatabaseID)
	}

	return archiver
}
