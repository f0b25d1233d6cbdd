// Package bot is the Telegram transport: it receives free-form messages,
// runs them through the parser and records the result in the store. It is
// the only writer in the system.
package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/hanifmaulana/kasbot/internal/cache"
	"github.com/hanifmaulana/kasbot/internal/model"
	"github.com/hanifmaulana/kasbot/internal/parser"
	"github.com/hanifmaulana/kasbot/internal/receipt"
)

// Store is the write-plus-read surface of the persistence store the bot needs.
type Store interface {
	Append(ctx context.Context, tx *model.Transaction) error
	ReadAll(ctx context.Context) ([]model.Transaction, error)
}

// PhotoArchive stores the raw receipt image and returns its URI.
type PhotoArchive interface {
	SaveReceipt(ctx context.Context, photo io.Reader, contentType string, taken time.Time) (string, error)
}

// Bot wires the Telegram API to the parser and the store.
type Bot struct {
	api    *tgbotapi.BotAPI
	parser *parser.Parser
	store  Store
	cache  *cache.Cache
	log    zerolog.Logger

	// Optional receipt-photo pipeline; nil disables photo handling.
	receipts *receipt.Reader
	photos   PhotoArchive

	handleTimeout time.Duration
}

// New creates the bot. receipts and photos may be nil.
func New(token string, p *parser.Parser, store Store, c *cache.Cache, receipts *receipt.Reader, photos PhotoArchive, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("bot.New: %w", err)
	}
	return &Bot{
		api:           api,
		parser:        p,
		store:         store,
		cache:         c,
		receipts:      receipts,
		photos:        photos,
		log:           log,
		handleTimeout: 60 * time.Second,
	}, nil
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info().Str("username", b.api.Self.UserName).Msg("bot started")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			handleCtx, cancel := context.WithTimeout(ctx, b.handleTimeout)
			b.handleMessage(handleCtx, update.Message)
			cancel()
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg)
	case msg.Text != "":
		b.handleText(ctx, msg)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.reply(msg, welcomeText)
	case "help":
		b.reply(msg, helpText)
	case "saldo":
		b.handleSaldo(ctx, msg)
	default:
		b.reply(msg, "Perintah tidak dikenal. Coba /help 🙏")
	}
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	tx, err := b.parser.Parse(parser.RawMessage{
		Text:       msg.Text,
		Sender:     senderName(msg),
		ReceivedAt: msg.Time(),
	})
	if err != nil {
		// Parse failures are always surfaced: a transaction silently
		// failing to record is the worst failure mode for this bot.
		b.log.Debug().Err(err).Str("text", msg.Text).Msg("message not parseable")
		b.reply(msg, replyForParseError(err))
		return
	}

	b.record(ctx, msg, tx)
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	if b.receipts == nil {
		b.reply(msg, "📸 Maaf, pembacaan foto struk belum aktif di bot ini.")
		return
	}

	// Telegram orders sizes ascending; take the largest rendition.
	fileID := msg.Photo[len(msg.Photo)-1].FileID
	photo, err := b.downloadPhoto(ctx, fileID)
	if err != nil {
		b.log.Error().Err(err).Msg("downloading photo failed")
		b.reply(msg, "⚠️ Gagal mengambil fotonya, coba kirim ulang ya.")
		return
	}

	photoURL := ""
	if b.photos != nil {
		uri, err := b.photos.SaveReceipt(ctx, bytesReader(photo), "image/jpeg", msg.Time())
		if err != nil {
			// Archival is best effort; the transaction still gets recorded.
			b.log.Warn().Err(err).Msg("archiving receipt photo failed")
		} else {
			photoURL = uri
		}
	}

	rec, err := b.receipts.Read(ctx, photo, "image/jpeg")
	if err != nil {
		b.log.Error().Err(err).Msg("reading receipt failed")
		b.reply(msg, "🤔 Aku tidak bisa membaca struknya. Coba foto yang lebih jelas, atau ketik manual ya.")
		return
	}

	tx := transactionFromReceipt(rec, msg.Caption, senderName(msg), photoURL)
	b.record(ctx, msg, tx)
}

// record appends tx to the store, invalidates the read cache and confirms.
func (b *Bot) record(ctx context.Context, msg *tgbotapi.Message, tx *model.Transaction) {
	if err := b.store.Append(ctx, tx); err != nil {
		b.log.Error().Err(err).Msg("appending transaction failed")
		b.reply(msg, "⚠️ Gagal menyimpan transaksi. Coba lagi sebentar lagi ya.")
		return
	}
	b.cache.InvalidateAll()
	b.replyMarkdown(msg, tx.ConfirmationText())
}

func (b *Bot) handleSaldo(ctx context.Context, msg *tgbotapi.Message) {
	txs, err := b.cache.Get(ctx, "all", b.store.ReadAll)
	if err != nil {
		b.log.Error().Err(err).Msg("reading balance failed")
		b.reply(msg, "⚠️ Tidak bisa mengambil saldo sekarang, coba lagi nanti ya.")
		return
	}
	var balance int64
	for i := range txs {
		balance += txs[i].SignedAmount()
	}
	b.reply(msg, fmt.Sprintf("💰 Saldo kamu saat ini: Rp %s", model.FormatRupiah(balance)))
}

func (b *Bot) downloadPhoto(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolving file URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching photo: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	if _, err := b.api.Send(out); err != nil {
		b.log.Error().Err(err).Msg("sending reply failed")
	}
}

func (b *Bot) replyMarkdown(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(out); err != nil {
		b.log.Error().Err(err).Msg("sending reply failed")
	}
}
