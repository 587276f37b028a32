// =============================================================================
// config.go - パイプライン設定
// =============================================================================
//
// このファイルは環境変数からの設定読み込みと検証を行います。
//
// 【設定グループ】
//   - FeedConfig:   フィードURL・要約の長さ
//   - OpenAIConfig: OpenAI APIキー・モデル
//   - SMTPConfig:   メール送信設定
//   - NotionConfig: Notionアーカイブ設定（任意）
//
// 【必要な環境変数】
//   OPENAI_API_KEY          - OpenAI APIキー（必須）
//   OPENAI_MODEL            - 使用するモデル（任意、デフォルト: gpt-3.5-turbo）
//   RSS_FEED_URL            - 取得するRSS/AtomフィードのURL（必須）
//   RSS_FEED_SUMMARY_LENGTH - 要約の長さ: Short / Medium / Long（必須）
//   SMTP_SERVER             - SMTPサーバーホスト（必須）
//   SMTP_PORT               - SMTPポート（必須、SMTPS用。例: 465）
//   SMTP_USER               - SMTP認証ユーザー（必須）
//   SMTP_PASSWORD           - SMTP認証パスワード（必須）
//   SENDER_EMAIL            - 送信元メールアドレス（必須）
//   RECIPIENT_EMAIL         - 送信先メールアドレス（必須、カンマ区切りで複数可）
//   NOTION_TOKEN            - Notion APIトークン（任意）
//   NOTION_DATABASE_ID      - NotionデータベースID（任意）
//
// =============================================================================
package digest

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// 設定構造体
// =============================================================================

// Config はパイプラインの全設定を保持する
//
// LoadConfig()で一度だけ構築し、各コンポーネントへ参照で渡す。
// 環境変数を読むのはこのファイルだけに限定する。
type Config struct {
	Feed   FeedConfig
	OpenAI OpenAIConfig
	SMTP   SMTPConfig
	Notion NotionConfig
}

// FeedConfig はフィード取得と要約の長さに関する設定
type FeedConfig struct {
	// URL は取得するRSS/AtomフィードのURL
	URL string

	// SummaryLength は要約の長さプリセット（"Short" | "Medium" | "Long"）
	SummaryLength string

	// MaxSummaryTokens はSummaryLengthから導出したトークン上限
	MaxSummaryTokens int
}

// OpenAIConfig はOpenAI APIに関する設定
type OpenAIConfig struct {
	// APIKey はOpenAIのAPIキー
	APIKey string

	// Model は使用するOpenAIモデル
	Model string
}

// SMTPConfig はメール送信に関する設定
//
// 【注意】認証にはUserを、エンベロープのFromにはFromを使う（別の値でよい）
type SMTPConfig struct {
	Host     string   // SMTPサーバーホスト
	Port     int      // SMTPポート（SMTPS、接続開始時からTLS）
	User     string   // SMTP認証ユーザー
	Password string   // SMTP認証パスワード
	From     string   // 送信元メールアドレス
	To       []string // 送信先メールアドレス（複数可）
}

// Addr は"host:port"形式のSMTPサーバーアドレスを返す
func (c *SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NotionConfig はNotionアーカイブに関する設定（任意機能）
type NotionConfig struct {
	// Token はNotion APIトークン
	Token string

	// DatabaseID はアーカイブ先データベースID
	DatabaseID string
}

// Enabled はNotionアーカイブが設定されているかどうかを返す
func (c *NotionConfig) Enabled() bool {
	return c.Token != "" && c.DatabaseID != ""
}

// =============================================================================
// 要約の長さプリセット
// =============================================================================

// 要約の長さプリセットに対応するトークン上限
const (
	summaryTokensShort  = 500
	summaryTokensMedium = 1000
	summaryTokensLong   = 1500
)

// defaultOpenAIModel はOPENAI_MODEL未設定時のモデル
const defaultOpenAIModel = "gpt-3.5-turbo"

// maxTokensForLength は長さプリセットをトークン上限に変換する
//
// Short/Medium/Long以外の値が指定された場合はMediumにフォールバックし、
// 警告を出力する（全ての非空入力に対して必ず値を返す）
func maxTokensForLength(length string) int {
	switch length {
	case "Short":
		return summaryTokensShort
	case "Medium":
		return summaryTokensMedium
	case "Long":
		return summaryTokensLong
	default:
		warnf("invalid summary length %q: set RSS_FEED_SUMMARY_LENGTH to Short, Medium, or Long (falling back to Medium)", length)
		return summaryTokensMedium
	}
}

// =============================================================================
// 設定読み込み
// =============================================================================

// LoadConfig は環境変数から設定を読み込んで検証する
//
// 【検証の順序】
//  1. OpenAI設定（OPENAI_API_KEY）
//  2. フィード設定（RSS_FEED_URL, RSS_FEED_SUMMARY_LENGTH）
//  3. メール設定（SMTP_*, SENDER_EMAIL, RECIPIENT_EMAIL）
//
// いずれかのグループが欠けている場合、そのグループを示すエラーを返す。
// 部分的に検証済みのConfigが返ることはない（エラー時はnil）。
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// --- 1) OpenAI設定 ---
	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAI.APIKey == "" {
		return nil, errors.New("missing OpenAI settings: set OPENAI_API_KEY in your environment or .env file")
	}
	cfg.OpenAI.Model = os.Getenv("OPENAI_MODEL")
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = defaultOpenAIModel
	}

	// --- 2) フィード設定 ---
	cfg.Feed.URL = os.Getenv("RSS_FEED_URL")
	cfg.Feed.SummaryLength = os.Getenv("RSS_FEED_SUMMARY_LENGTH")
	if cfg.Feed.URL == "" || cfg.Feed.SummaryLength == "" {
		return nil, errors.New("missing feed settings: set RSS_FEED_URL and RSS_FEED_SUMMARY_LENGTH in your environment or .env file")
	}
	cfg.Feed.MaxSummaryTokens = maxTokensForLength(cfg.Feed.SummaryLength)

	// --- 3) メール設定 ---
	smtp, err := loadSMTPConfig()
	if err != nil {
		return nil, err
	}
	cfg.SMTP = *smtp

	// --- 4) Notion設定（任意） ---
	cfg.Notion.Token = os.Getenv("NOTION_TOKEN")
	cfg.Notion.DatabaseID = os.Getenv("NOTION_DATABASE_ID")

	return cfg, nil
}

// loadSMTPConfig はメール設定を読み込んで検証する
//
// 欠けている変数名を列挙した1つのエラーにまとめて返す。
// ポートは読み込み時に数値へ変換し、範囲もここで検証する。
func loadSMTPConfig() (*SMTPConfig, error) {
	host := os.Getenv("SMTP_SERVER")
	portStr := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	password := os.Getenv("SMTP_PASSWORD")
	from := os.Getenv("SENDER_EMAIL")
	to := os.Getenv("RECIPIENT_EMAIL")

	var missing []string
	for _, v := range []struct{ name, value string }{
		{"SMTP_SERVER", host},
		{"SMTP_PORT", portStr},
		{"SMTP_USER", user},
		{"SMTP_PASSWORD", password},
		{"SENDER_EMAIL", from},
		{"RECIPIENT_EMAIL", to},
	} {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing mail settings: set %s in your environment or .env file", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid mail settings: SMTP_PORT %q must be a number between 1 and 65535", portStr)
	}

	// カンマ区切りの送信先を分割
	toList := strings.Split(to, ",")
	for i, addr := range toList {
		toList[i] = strings.TrimSpace(addr)
	}

	return &SMTPConfig{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       toList,
	}, nil
}
