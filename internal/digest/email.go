// =============================================================================
// email.go - ダイジェストメール送信モジュール
// =============================================================================
//
// このファイルはHTMLダイジェストの生成とSMTPS経由のメール送信を提供します。
//
// =============================================================================
// 【処理の流れ】
// =============================================================================
//
// 1. RunResultからHTMLダイジェスト本文を生成
// 2. RFC 5322準拠のメールメッセージを構築（text/html）
// 3. SMTPS（接続開始時からTLS）でSMTPサーバーに接続
// 4. PLAIN認証 → MAIL FROM → RCPT TO → DATA → QUIT
//
// =============================================================================
// 【SMTPSとSTARTTLSの違い】
// =============================================================================
//
// - SMTPS:    接続した瞬間からTLS（ポート465が一般的）。このモジュールはこちら
// - STARTTLS: 平文で接続してからTLSへ昇格（ポート587が一般的）
//
// smtp.SendMail はSTARTTLS用のため、ここでは tls.DialWithDialer で
// TLS接続を張ってから smtp.NewClient を使う。
//
// =============================================================================
// 【初心者向けポイント】
// =============================================================================
//
// - RFC 5322: メールフォーマットの標準規格（ヘッダーと本文を\r\n\r\nで区切る）
// - メール送信は1回だけ試行する（失敗したら実行全体のエラーになる）
// - 送信全体に締め切りを設定し、応答しないサーバーで固まらないようにする
//
// =============================================================================
package digest

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"io"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// digestSubject はダイジェストメールの件名（固定）
const digestSubject = "RSS Feed Article Summaries"

// digestSeparator は記事ブロック間の区切り線
const digestSeparator = "========================================================="

// SMTP接続・送信の時間制限
const (
	smtpDialTimeout = 30 * time.Second // TLS接続確立まで
	smtpSendTimeout = 60 * time.Second // 送信全体の締め切り
)

// =============================================================================
// ダイジェスト本文生成
// =============================================================================

// BuildDigest はRunResultからHTMLダイジェスト本文を生成する
//
// 【出力フォーマット】（記事ごとに1ブロック、フィード順）
//
//	<h2>記事タイトル</h2>
//	<h3>Published on: Mon, 05 Jan 2026 12:00:00 +0100</h3>
//	<h3>Summary:</h3>
//	要約テキスト<p>&nbsp;</p>
//	<a href="https://...">Read more</a><p>&nbsp;</p>
//
//	=========================================================
//
// 要約が0件の場合は記事ブロックなしの本文を返す（それでも送信はされる）。
// スキップされた記事がある場合は末尾に1行の注記を付ける。
func BuildDigest(result *RunResult) string {
	var sb strings.Builder

	for _, item := range result.Summaries {
		sb.WriteString(fmt.Sprintf("<h2>%s</h2>\n", html.EscapeString(item.Title)))
		sb.WriteString(fmt.Sprintf("<h3>Published on: %s</h3>\n", html.EscapeString(item.Published)))
		sb.WriteString(fmt.Sprintf("<h3>Summary:</h3>\n%s<p>&nbsp;</p>\n", html.EscapeString(item.Summary)))
		sb.WriteString(fmt.Sprintf("<a href=\"%s\">Read more</a><p>&nbsp;</p>\n\n", html.EscapeString(item.Link)))
		sb.WriteString(digestSeparator + "\n")
	}

	if len(result.Failures) > 0 {
		titles := make([]string, 0, len(result.Failures))
		for _, f := range result.Failures {
			titles = append(titles, html.EscapeString(f.Title))
		}
		sb.WriteString(fmt.Sprintf("<p><i>%d article(s) could not be summarized: %s</i></p>\n",
			len(result.Failures), strings.Join(titles, ", ")))
	}

	return sb.String()
}

// =============================================================================
// EmailSender
// =============================================================================

// EmailSender はSMTPS経由のダイジェストメール送信を担当する
type EmailSender struct {
	config SMTPConfig
}

// NewEmailSender は新しいメール送信者を作成する
//
// LoadConfigを通らずに直接構築される場合に備えて、必須項目をここでも検証する。
func NewEmailSender(cfg SMTPConfig) (*EmailSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP_SERVER is required")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("SMTP_PORT must be a number between 1 and 65535")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("SMTP_USER is required")
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("SMTP_PASSWORD is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SENDER_EMAIL is required")
	}
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("RECIPIENT_EMAIL is required")
	}
	for _, addr := range cfg.To {
		if addr == "" {
			return nil, fmt.Errorf("RECIPIENT_EMAIL contains an empty address")
		}
	}

	return &EmailSender{config: cfg}, nil
}

// SendDigest はダイジェストを1通のメールとして送信する
//
// 要約0件でも送信する。送信は1回だけ試行し、失敗はそのままエラーとして返す。
func (es *EmailSender) SendDigest(ctx context.Context, result *RunResult) error {
	body := BuildDigest(result)
	msg := es.buildEmailMessage(digestSubject, body)
	return es.send(ctx, msg)
}

// =============================================================================
// メールメッセージ構築
// =============================================================================

// buildEmailMessage はRFC 5322準拠のメールメッセージを構築する
//
// 【RFC 5322フォーマット】
//
//	From: sender@example.com\r\n
//	To: recipient@example.com\r\n
//	Subject: メール件名\r\n
//	MIME-Version: 1.0\r\n
//	Content-Type: text/html; charset=UTF-8\r\n
//	\r\n
//	メール本文...
//
// 注意: ヘッダーと本文は空行（\r\n）で区切る
func (es *EmailSender) buildEmailMessage(subject, body string) []byte {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("From: %s\r\n", es.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(es.config.To, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n") // ヘッダーと本文の区切り
	msg.WriteString(body)

	return []byte(msg.String())
}

// =============================================================================
// 送信（SMTPS）
// =============================================================================

// send はSMTPSでTLS接続を張り、メールを送信する
//
// 【SMTP認証】
//
//	PLAIN認証を使用。認証ユーザーはSMTP_USER（SENDER_EMAILとは別でよい）
func (es *EmailSender) send(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := es.config.Addr()
	dialer := &net.Dialer{Timeout: smtpDialTimeout}

	// 接続開始時からTLS（SMTPS）
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: es.config.Host})
	if err != nil {
		return fmt.Errorf("SMTPS connection to %s failed: %w", addr, err)
	}
	defer conn.Close()

	// 送信全体の締め切り（応答しないサーバーで固まらないように）
	if err := conn.SetDeadline(time.Now().Add(smtpSendTimeout)); err != nil {
		return fmt.Errorf("setting send deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, es.config.Host)
	if err != nil {
		return fmt.Errorf("SMTP handshake failed: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", es.config.User, es.config.Password, es.config.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth failed: %w", err)
	}

	if err := client.Mail(es.config.From); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, rcpt := range es.config.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s failed: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing message failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing message failed: %w", err)
	}

	return client.Quit()
}

// =============================================================================
// StdoutSender（ドライラン用）
// =============================================================================

// StdoutSender はメールを送信せず、ダイジェスト本文を書き出すDigestSender
//
// CLIの -dryRun で使用する。Outがnilの場合の動作は未定義なので、
// 必ずNewStdoutSenderで作成する。
type StdoutSender struct {
	Out io.Writer
}

// NewStdoutSender は標準出力に書き出すStdoutSenderを作成する
func NewStdoutSender(out io.Writer) *StdoutSender {
	return &StdoutSender{Out: out}
}

// SendDigest はダイジェスト本文をOutに書き出す
func (s *StdoutSender) SendDigest(ctx context.Context, result *RunResult) error {
	_, err := fmt.Fprintln(s.Out, BuildDigest(result))
	return err
}
