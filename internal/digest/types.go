// =============================================================================
// types.go - データ構造定義
// =============================================================================
//
// このファイルはFeed Digestシステム全体で使用するデータ構造（型）を定義します。
//
// 【このファイルで定義している型】
//   - ArticleSummary: 要約済み記事（ダイジェストの1ブロックに対応）
//   - EntryFailure:   要約に失敗したエントリの記録
//   - RunResult:      1回のパイプライン実行の結果
//
// 【初心者向けポイント】
//   - Go言語では`type 型名 struct { ... }`で構造体（複数のデータをまとめた型）を定義
//   - `json:"フィールド名"`はJSONに変換する際のキー名を指定するタグ
//   - `omitempty`は値が空の場合、JSONに出力しないことを意味
//
// =============================================================================
package digest

// -----------------------------------------------------------------------------
// ArticleSummary - 要約済み記事
// -----------------------------------------------------------------------------
//
// フィードから選択され、本文取得とAI要約まで完了した記事を表します。
// ダイジェストメールの1ブロック（タイトル・公開日・要約・リンク）になります。
//
// 【フィールドの説明】
//   Title:     記事のタイトル
//   Published: フィードに記載されていた公開日時の文字列（変換せずそのまま保持）
//   Link:      記事のURL（"Read more"リンクになる）
//   Summary:   AIが生成した要約（前後の空白は除去済み）
//
type ArticleSummary struct {
	Title     string `json:"title"`     // 記事タイトル
	Published string `json:"published"` // 公開日時（フィードの原文のまま）
	Link      string `json:"link"`      // 記事URL
	Summary   string `json:"summary"`   // AI要約
}

// -----------------------------------------------------------------------------
// EntryFailure - 要約に失敗したエントリ
// -----------------------------------------------------------------------------
//
// 本文の取得や要約に失敗した記事の記録です。1件の失敗は実行全体を
// 中断せず、このレコードとして残してスキップされます。
//
type EntryFailure struct {
	Title  string `json:"title"`  // 記事タイトル
	Link   string `json:"link"`   // 記事URL
	Reason string `json:"reason"` // 失敗理由
}

// -----------------------------------------------------------------------------
// RunResult - パイプライン実行結果
// -----------------------------------------------------------------------------
//
// 1回の実行で生成された要約と、スキップされたエントリの一覧を保持します。
// Summariesはフィードの掲載順を保ちます。
//
// 【使用場面】
//   - email.goでダイジェスト本文の生成に使用
//   - CLIの -out フラグでJSONファイルとして保存
//
type RunResult struct {
	Summaries []ArticleSummary `json:"summaries"`          // 要約一覧（フィード順）
	Failures  []EntryFailure   `json:"failures,omitempty"` // スキップされたエントリ
}
