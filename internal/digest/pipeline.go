// =============================================================================
// pipeline.go - ダイジェスト実行の制御フロー
// =============================================================================
//
// このファイルは1回のダイジェスト実行全体を制御します。
//
// 【処理の流れ】
//  1. 基準タイムゾーン（Europe/Amsterdam）の解決
//  2. フィード取得・パース
//  3. 「昨日」公開された対象記事の選択
//  4. 記事ごとに本文取得 → AI要約
//  5. ダイジェストメール送信
//  6. Notionアーカイブ（設定時のみ）
//
// 【エラーの扱い】
//   - フィード取得・パース失敗:     実行全体のエラー（中断）
//   - 記事1件の取得・要約失敗:      記録してスキップ（実行は継続）
//   - ダイジェスト送信失敗:         実行全体のエラー（中断）
//   - アーカイブ失敗:               警告のみ（ダイジェストは送信済み）
//
// =============================================================================
package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
)

// =============================================================================
// コラボレーターインターフェース
// =============================================================================

// Summarizer は記事本文から要約を生成する
type Summarizer interface {
	Summarize(ctx context.Context, articleText string) (string, error)
}

// DigestSender は実行結果をダイジェストとして届ける
type DigestSender interface {
	SendDigest(ctx context.Context, result *RunResult) error
}

// DigestArchiver は生成した要約を外部ストアに保存する
type DigestArchiver interface {
	ArchiveSummaries(ctx context.Context, summaries []ArticleSummary) error
}

// =============================================================================
// Runner
// =============================================================================

// Runner は1回のダイジェスト実行を担当する
//
// エクスポートされたフィールドは実行前に差し替えられる
// （CLIのドライランはSenderをStdoutSenderに差し替える）
type Runner struct {
	cfg *Config

	Summarizer Summarizer
	Sender     DigestSender
	Archiver   DigestArchiver // nilの場合はアーカイブしない

	FeedFetch    FetchConfig
	ArticleFetch FetchConfig

	// now は基準時刻を返す（テストでは固定値に差し替える）
	now func() time.Time
}

// NewRunner は本番用の実装を配線したRunnerを作成する
//
// Notionアーカイブはここでは配線しない。利用するかどうかは
// エントリーポイント側（CLIフラグ / Lambda環境変数）が決める。
func NewRunner(cfg *Config) (*Runner, error) {
	sender, err := NewEmailSender(cfg.SMTP)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:          cfg,
		Summarizer:   NewOpenAISummarizer(cfg),
		Sender:       sender,
		FeedFetch:    DefaultFetchConfig(),
		ArticleFetch: ArticleFetchConfig(),
		now:          time.Now,
	}, nil
}

// Run はダイジェスト実行全体を制御する
//
// 戻り値のRunResultは送信済みダイジェストの内容（要約とスキップ記録）。
// エラーを返すのは実行全体が中断された場合だけで、記事単位の失敗は
// RunResult.Failuresに記録されて実行は継続する。
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	loc, err := time.LoadLocation(digestTimezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %s: %w", digestTimezone, err)
	}

	// --- 1) フィード取得 ---
	infof("fetching feed: %s", r.cfg.Feed.URL)
	feed, err := FetchFeed(ctx, r.cfg.Feed.URL, r.FeedFetch)
	if err != nil {
		return nil, fmt.Errorf("collecting feed: %w", err)
	}

	// --- 2) 記事選択 ---
	entries := SelectEntries(feed.Items, r.now(), loc)
	infof("selected %d of %d entries", len(entries), len(feed.Items))
	if len(entries) == 0 {
		warnf("no entries qualified for the digest (sending an empty digest)")
	}

	// --- 3) 記事ごとに本文取得 → 要約 ---
	result := &RunResult{
		Summaries: make([]ArticleSummary, 0, len(entries)),
	}

	for i, entry := range entries {
		// キャンセルされていたら以降の記事は処理しない
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		infof("[%d/%d] summarizing: %s", i+1, len(entries), entry.Title)

		text, err := FetchArticleText(ctx, entry.Link, r.ArticleFetch)
		if err != nil {
			recordFailure(result, entry, fmt.Errorf("fetching article: %w", err))
			continue
		}

		summary, err := r.Summarizer.Summarize(ctx, text)
		if err != nil {
			recordFailure(result, entry, fmt.Errorf("summarizing article: %w", err))
			continue
		}

		result.Summaries = append(result.Summaries, ArticleSummary{
			Title:     entry.Title,
			Published: entry.Published,
			Link:      entry.Link,
			Summary:   summary,
		})
	}

	// --- 4) ダイジェスト送信 ---
	if err := r.Sender.SendDigest(ctx, result); err != nil {
		return nil, fmt.Errorf("sending digest: %w", err)
	}
	infof("digest sent (%d summaries, %d skipped)", len(result.Summaries), len(result.Failures))

	// --- 5) Notionアーカイブ（設定時のみ） ---
	if r.Archiver != nil && len(result.Summaries) > 0 {
		if err := r.Archiver.ArchiveSummaries(ctx, result.Summaries); err != nil {
			warnf("archiving summaries: %v", err)
		}
	}

	return result, nil
}

// recordFailure は記事1件の失敗を記録する（実行は継続する）
func recordFailure(result *RunResult, entry *gofeed.Item, err error) {
	errorf("skipping entry '%s': %v", entry.Title, err)
	result.Failures = append(result.Failures, EntryFailure{
		Title:  entry.Title,
		Link:   entry.Link,
		Reason: err.Error(),
	})
}
