// =============================================================================
// feed.go - フィード取得と記事選択
// =============================================================================
//
// このファイルはRSS/Atomフィードの取得・パースと、ダイジェスト対象記事の
// 選択ロジックを提供します。
//
// 【選択ルール】
//   - 公開日時をAmsterdamタイムゾーンに変換して「昨日」の記事だけを残す
//   - 先頭のカテゴリタグが "Software" の記事は除外する
//   - 公開日時をパースできなかった記事は黙って除外する
//   - カテゴリタグを持たない記事は除外しない
//   - フィードの掲載順はそのまま保つ
//
// =============================================================================
package digest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// digestTimezone は「昨日」を判定する基準タイムゾーン
const digestTimezone = "Europe/Amsterdam"

// excludedCategory は先頭カテゴリタグがこの値の記事を除外する
const excludedCategory = "Software"

// =============================================================================
// HTTP設定
// =============================================================================

// FetchConfig はHTTP取得時の設定を保持
type FetchConfig struct {
	UserAgent string        // HTTPリクエスト時のUser-Agentヘッダー
	Timeout   time.Duration // HTTPリクエストのタイムアウト時間
	Client    *http.Client  // 共有HTTPクライアント（コネクションプーリング有効）
}

// DefaultFetchConfig はフィード取得用のデフォルト設定を返す
func DefaultFetchConfig() FetchConfig {
	return newFetchConfig(30 * time.Second)
}

// ArticleFetchConfig は記事本文取得用の設定を返す
//
// 記事1件の取得失敗は実行全体を止めないため、フィード取得より
// 短い10秒タイムアウトで見切る
func ArticleFetchConfig() FetchConfig {
	return newFetchConfig(10 * time.Second)
}

func newFetchConfig(timeout time.Duration) FetchConfig {
	return FetchConfig{
		UserAgent: "Mozilla/5.0 (compatible; feed-digest/1.0; +https://example.invalid)",
		Timeout:   timeout,
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// =============================================================================
// フィード取得
// =============================================================================

// FetchFeed は指定URLからRSS/Atomフィードを取得してパース
//
// 共有HTTPクライアントを使用してフィードをフェッチし、gofeedでパースする。
// 取得失敗・パース失敗はどちらも明示的なエラーとして返す。
// 到達できないフィードを「空のフィード」として扱うことはない。
func FetchFeed(ctx context.Context, feedURL string, cfg FetchConfig) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("feed request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := cfg.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed fetch %s: unexpected status: %d", feedURL, resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed parse failed: %w", err)
	}

	return feed, nil
}

// =============================================================================
// 記事選択
// =============================================================================

// SelectEntries は「昨日」公開された対象記事を選択する
//
// 【引数】
//   - items: フィードの全エントリ（掲載順）
//   - now:   基準時刻（テストでは固定値を渡す）
//   - loc:   基準タイムゾーン（Europe/Amsterdam）
//
// 【判定】
//   公開日時をlocに変換した日付が「nowをlocに変換した日付の前日」と
//   一致する記事だけを残す。22:30 UTCに公開された記事は、CET/CESTでは
//   翌日の記事として扱われる点に注意。
//
// 入力スライスは変更せず、新しいスライスを返す（非破壊的操作）
func SelectEntries(items []*gofeed.Item, now time.Time, loc *time.Location) []*gofeed.Item {
	wantYear, wantMonth, wantDay := yesterdayIn(now, loc)

	selected := make([]*gofeed.Item, 0, len(items))
	for _, item := range items {
		if item == nil || item.PublishedParsed == nil {
			// 公開日時が無い・パースできない記事は黙って除外
			continue
		}

		year, month, day := item.PublishedParsed.In(loc).Date()
		if year != wantYear || month != wantMonth || day != wantDay {
			continue
		}

		// 先頭カテゴリだけを見る。タグなしの記事は除外しない
		if len(item.Categories) > 0 && item.Categories[0] == excludedCategory {
			continue
		}

		selected = append(selected, item)
	}

	return selected
}

// yesterdayIn は基準タイムゾーンでの「昨日」の年月日を返す
func yesterdayIn(now time.Time, loc *time.Location) (int, time.Month, int) {
	return now.In(loc).AddDate(0, 0, -1).Date()
}
