// =============================================================================
// article.go - 記事本文の取得とテキスト抽出
// =============================================================================
//
// このファイルは記事URLから本文テキストを取り出すロジックを提供します。
//
// 【処理の流れ】
//  1. 記事URLへHTTP GET（10秒タイムアウト）
//  2. Content-TypeでHTML / PDFを判定
//  3. HTML: script/style/noscriptを除去してbodyの可視テキストを抽出
//     PDF:  全ページのプレーンテキストを連結
//  4. 空白を整理し、モデルに渡す上限までで切り詰める
//
// ここでの失敗は記事1件のスキップにとどまり、実行全体は止めない
// （エラーの扱いはpipeline.go側）
//
// =============================================================================
package digest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// maxArticleRunes はモデルに渡す本文の上限（これを超える分は切り捨て）
const maxArticleRunes = 12000

// FetchArticleText は記事URLから本文のプレーンテキストを取得する
//
// 戻り値のテキストは整形・切り詰め済みで、そのまま要約プロンプトに
// 渡せる形になっている。抽出結果が空の場合はエラーを返す。
func FetchArticleText(ctx context.Context, articleURL string, cfg FetchConfig) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("article request creation failed: %w", err)
	}
	// ブロッキング回避のため、ブラウザ風のヘッダーを設定
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf")

	resp, err := cfg.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("article request failed: %w", err)
	}
	defer resp.Body.Close()

	// HTTPステータスコードチェック（200番台以外はエラー）
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("GET %s: status %s", articleURL, resp.Status)
	}

	var text string
	if isPDFResponse(resp.Header.Get("Content-Type"), articleURL) {
		text, err = extractPDFText(resp.Body)
	} else {
		text, err = extractHTMLText(resp.Body)
	}
	if err != nil {
		return "", err
	}

	if text == "" {
		return "", fmt.Errorf("no text content extracted from %s", articleURL)
	}

	return truncateString(text, maxArticleRunes), nil
}

// isPDFResponse はレスポンスがPDF文書かどうかを判定する
//
// Content-Typeを優先し、ヘッダーが曖昧な場合はURLパスの拡張子で判定する
func isPDFResponse(contentType, articleURL string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	u, err := url.Parse(articleURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// extractHTMLText はHTML文書から可視テキストを抽出する
//
// script/style/noscript要素はテキストごと除去する。body要素が無い
// 文書は文書全体のテキストにフォールバックする。
func extractHTMLText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("HTML parse failed: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}

	return cleanExtractedText(text), nil
}

// extractPDFText はPDF文書の全ページからプレーンテキストを抽出する
//
// pdf.NewReaderはio.ReaderAtを要求するため、一度メモリに読み込む。
// テキストを取り出せないページは黙ってスキップする。
func extractPDFText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return normalizeWhitespace(textBuilder.String()), nil
}

// cleanExtractedText は goquery .Text() の出力を整理する
// 各行の連続空白を単一スペースにし、空行を除去する
func cleanExtractedText(raw string) string {
	lines := strings.Split(raw, "\n")
	var cleaned []string
	for _, line := range lines {
		line = normalizeWhitespace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
