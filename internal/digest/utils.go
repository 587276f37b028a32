// =============================================================================
// utils.go - ユーティリティ関数
// =============================================================================
//
// このファイルはパッケージ全体で使用する汎用的なヘルパー関数を提供します。
//
// 【このファイルで提供する機能】
//   - 文字列操作: 空白正規化、長さ制限付き切り詰め
//   - ログ出力: 警告・情報・エラーメッセージの出力
//
// 【初心者向けポイント】
//   - Goでは小文字始まりの関数はパッケージ内でのみ使用可能（プライベート）
//   - `...any`は可変長引数（任意の数の引数を受け取れる）
//
// =============================================================================
package digest

import (
	"fmt"
	"os"
	"strings"
)

// -----------------------------------------------------------------------------
// 文字列操作関数
// -----------------------------------------------------------------------------

// normalizeWhitespace は文字列内の連続する空白を単一スペースに正規化する
//
// 使用例:
//
//	normalizeWhitespace("  hello   world  ")  // "hello world"
//
// 【処理の流れ】
//  1. strings.Fields: 空白で分割してスライスに（連続空白は無視される）
//  2. strings.Join: スペースで再結合
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateString は文字列を指定した長さに切り詰める
//
// maxLen文字を超える場合、末尾に"..."を付けて切り詰める
// 日本語などのマルチバイト文字も正しく処理する（runeを使用）
//
// 使用例:
//
//	truncateString("Hello World", 8)  // "Hello..."
//	truncateString("短い", 10)        // "短い"（そのまま）
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// -----------------------------------------------------------------------------
// ログ出力関数
// -----------------------------------------------------------------------------

// warnf は警告メッセージを標準エラー出力に書き出す
//
// フォーマット: "WARN: メッセージ\n"
//
// 【なぜ標準エラー出力を使うか】
//
//	標準出力（stdout）はダイジェストのドライラン出力などデータ用に使うため、
//	ログメッセージは標準エラー出力（stderr）に出力する
func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "WARN: "+format+"\n", args...)
}

// infof は情報メッセージを標準エラー出力に書き出す
//
// フォーマット: "INFO: メッセージ\n"
func infof(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "INFO: "+format+"\n", args...)
}

// errorf はエラーメッセージを標準エラー出力に書き出す
//
// フォーマット: "ERROR: メッセージ\n"
//
// 【注意】この関数はログ出力のみでプログラムは終了しない
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
}
