// Package telegram is a chat front-end: users send a YouTube link or an image and get back
// the detected fonts.
package telegram

import (
	"bytes"
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "go-font-inspector/internal/errors"
	"go-font-inspector/internal/logger"
	"go-font-inspector/internal/service"
	"go-font-inspector/internal/session"
	"go-font-inspector/internal/storage"
	"go-font-inspector/pkg/models"
	"go-font-inspector/pkg/validation"
)

const (
	msgStart = `👋 Send me a YouTube link or an image and I will tell you which fonts it uses.

Accepted links: youtube.com/watch?v=…, youtube.com/embed/…, youtu.be/…
/status shows the last result. /cancel stops the running analysis.`
	msgAnalyzing      = "⏳ Analyzing…"
	msgSuperseded     = "⏳ Analyzing the new image. The previous one will not be reported."
	msgNoFonts        = "No text or fonts were found in this image."
	msgNothingYet     = "Nothing analyzed yet. Send a YouTube link or an image."
	msgCancelled      = "Stopped. The running analysis will not be reported."
	msgNothingToStop  = "Nothing is running."
	msgUnknownCommand = "❓ Unknown command. Send /start for help."
	msgDownloadFailed = "Could not download the file from Telegram."
)

const (
	// sessionIdleTTL is how long a finished chat session is kept for /status.
	sessionIdleTTL = time.Hour
	pruneInterval  = 10 * time.Minute
)

// botAPI is the subset of *tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot routes updates to the analysis service. Each chat has its own session; a new
// submission supersedes a running one, whose result is then dropped.
type Bot struct {
	api      botAPI
	svc      service.FontAnalysisService
	files    storage.ImageFetcher
	sessions *session.Manager
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewBot creates a bot. files downloads Telegram attachments.
func NewBot(api botAPI, svc service.FontAnalysisService, files storage.ImageFetcher, sessions *session.Manager, timeout time.Duration) *Bot {
	if sessions == nil {
		sessions = session.NewManager()
	}
	return &Bot{
		api:      api,
		svc:      svc,
		files:    files,
		sessions: sessions,
		timeout:  timeout,
	}
}

// Run handles updates until ctx is done or the channel closes, then waits for running
// analyses to finish. Idle chat sessions are pruned periodically.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer b.wg.Wait()

	prune := time.NewTicker(pruneInterval)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-prune.C:
			if n := b.sessions.Prune(sessionIdleTTL); n > 0 {
				logger.WithField("sessions", n).Info("Pruned idle chat sessions")
			}
		case upd, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, upd)
		}
	}
}

// Wait blocks until every analysis started so far has replied.
func (b *Bot) Wait() {
	b.wg.Wait()
}

// HandleUpdate dispatches one update. Analyses run in the background.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	cid := msg.Chat.ID

	switch {
	case msg.IsCommand():
		b.handleCommand(msg)
	case len(msg.Photo) > 0:
		// Telegram re-encodes photos as JPEG; the last size is the largest.
		photo := msg.Photo[len(msg.Photo)-1]
		b.startFile(ctx, cid, photo.FileID, "photo.jpg", "image/jpeg")
	case msg.Document != nil:
		doc := msg.Document
		if !validation.IsImageMediaType(doc.MimeType) {
			b.send(cid, "⚠️ "+apperrors.MsgInvalidFileType)
			return
		}
		b.startFile(ctx, cid, doc.FileID, doc.FileName, doc.MimeType)
	case msg.Text != "":
		if _, ok := validation.ExtractVideoID(msg.Text); !ok {
			b.send(cid, "⚠️ "+apperrors.MsgInvalidYouTubeURL)
			return
		}
		text := msg.Text
		b.start(ctx, cid, func(ctx context.Context) (*models.AnalysisReport, error) {
			return b.svc.AnalyzeYouTube(ctx, text)
		})
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start":
		// Starting over drops the chat's state; a running analysis goes stale.
		b.sessions.Get(cid).Reset()
		b.sessions.Forget(cid)
		b.send(cid, msgStart)
	case "help":
		b.send(cid, msgStart)
	case "status":
		b.sendStatus(cid)
	case "cancel":
		sess := b.sessions.Get(cid)
		if !sess.Busy() {
			b.send(cid, msgNothingToStop)
			return
		}
		sess.Reset()
		b.send(cid, msgCancelled)
	default:
		b.send(cid, msgUnknownCommand)
	}
}

func (b *Bot) sendStatus(cid int64) {
	snap := b.sessions.Get(cid).Snapshot()
	if snap.State != session.Succeeded {
		b.send(cid, RenderStatus(snap, time.Now())[0])
		return
	}
	b.sendReport(cid, snap.Report)
}

func (b *Bot) startFile(ctx context.Context, cid int64, fileID, fileName, mediaType string) {
	b.start(ctx, cid, func(ctx context.Context) (*models.AnalysisReport, error) {
		data, err := b.download(ctx, fileID)
		if err != nil {
			// The file URL embeds the bot token, so only the classified message is logged.
			logger.WithFields(logger.Fields{
				"chat_id": cid,
				"error":   apperrors.UserMessage(err),
			}).Warn("Telegram file download failed")
			return nil, apperrors.NewFetchError(msgDownloadFailed, err)
		}
		return b.svc.AnalyzeFile(ctx, bytes.NewReader(data), fileName, mediaType)
	})
}

// start claims the chat's session and runs analyze in the background. A running
// analysis keeps going but its result is discarded.
func (b *Bot) start(ctx context.Context, cid int64, analyze func(context.Context) (*models.AnalysisReport, error)) {
	sess := b.sessions.Get(cid)
	ticket, superseded := sess.Begin()
	if superseded {
		b.send(cid, msgSuperseded)
	} else {
		b.send(cid, msgAnalyzing)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		runCtx := context.WithoutCancel(ctx)
		if b.timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, b.timeout)
			defer cancel()
		}

		report, err := analyze(runCtx)
		if err != nil {
			if sess.Fail(ticket, err) {
				b.send(cid, "⚠️ "+apperrors.UserMessage(err))
			}
			return
		}
		if sess.Complete(ticket, report) {
			b.sendReport(cid, report)
		}
	}()
}

func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	payload, err := b.files.FetchImage(ctx, url)
	if err != nil {
		return nil, err
	}
	return payload.Bytes()
}

func (b *Bot) sendReport(cid int64, report *models.AnalysisReport) {
	for i, text := range RenderReport(report) {
		msg := tgbotapi.NewMessage(cid, text)
		msg.ParseMode = tgbotapi.ModeHTML
		// Only the first message may preview the thumbnail.
		msg.DisableWebPagePreview = i > 0 || report.Source.Kind != models.SourceYouTube
		b.sendChattable(cid, msg)
	}
}

func (b *Bot) send(cid int64, text string) {
	b.sendChattable(cid, tgbotapi.NewMessage(cid, text))
}

func (b *Bot) sendChattable(cid int64, c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		logger.WithError(err).WithField("chat_id", cid).Error("Error sending message")
	}
}
