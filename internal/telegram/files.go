package telegram

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/telegram/query/dialogs"
	"github.com/gotd/td/tg"

	"github.com/nirmitsaini1024/tgrab/internal/models"
	"github.com/nirmitsaini1024/tgrab/internal/server"
)

const historyBatchSize = 100

// ResolveChannel resolves a parsed channel reference to a canonical
// channel and caches its access hash for later history and file calls.
func (g *Gateway) ResolveChannel(ctx context.Context, sessionID string, ref server.ChannelRef) (*server.ChannelInfo, error) {
	acct, err := g.account(sessionID)
	if err != nil {
		return nil, err
	}

	switch ref.Kind {
	case server.RefUsername:
		return acct.resolveUsername(ctx, ref.Username)
	case server.RefInvite:
		return acct.resolveInvite(ctx, ref.Invite)
	case server.RefID:
		return acct.resolveID(ctx, ref.BareID())
	default:
		return nil, fmt.Errorf("failed to resolve channel: %s", ref.Original)
	}
}

func (a *account) resolveUsername(ctx context.Context, username string) (*server.ChannelInfo, error) {
	res, err := a.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel @%s: %w", username, err)
	}
	for _, chat := range res.Chats {
		if ch, ok := chat.(*tg.Channel); ok {
			return a.remember(ch), nil
		}
	}
	return nil, fmt.Errorf("@%s is not a channel", username)
}

func (a *account) resolveInvite(ctx context.Context, hash string) (*server.ChannelInfo, error) {
	invite, err := a.api.MessagesCheckChatInvite(ctx, hash)
	if err != nil {
		if strings.Contains(err.Error(), "INVITE_HASH_EXPIRED") {
			return nil, fmt.Errorf("invite link has expired")
		}
		return nil, fmt.Errorf("failed to resolve invite link: %w", err)
	}

	switch v := invite.(type) {
	case *tg.ChatInviteAlready:
		if ch, ok := v.Chat.(*tg.Channel); ok {
			return a.remember(ch), nil
		}
	case *tg.ChatInvitePeek:
		if ch, ok := v.Chat.(*tg.Channel); ok {
			return a.remember(ch), nil
		}
	case *tg.ChatInvite:
		// Not yet a member; join via the invite.
		upd, err := a.api.MessagesImportChatInvite(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("failed to join via invite link: %w", err)
		}
		if updates, ok := upd.(*tg.Updates); ok {
			for _, chat := range updates.Chats {
				if ch, ok := chat.(*tg.Channel); ok {
					return a.remember(ch), nil
				}
			}
		}
	}
	return nil, fmt.Errorf("invite link does not point to a channel")
}

// resolveID finds a channel by bare numeric id. Access hashes are not
// derivable from an id alone, so the account's dialogs are scanned.
func (a *account) resolveID(ctx context.Context, id int64) (*server.ChannelInfo, error) {
	a.mu.Lock()
	cached, ok := a.channels[id]
	a.mu.Unlock()
	if ok {
		name := a.channelName(ctx, cached)
		return &server.ChannelInfo{ID: id, Name: name}, nil
	}

	iter := dialogs.NewQueryBuilder(a.api).GetDialogs().BatchSize(100).Iter()
	for iter.Next(ctx) {
		elem := iter.Value()
		p, ok := elem.Peer.(*tg.InputPeerChannel)
		if !ok || p.ChannelID != id {
			continue
		}
		input := &tg.InputChannel{ChannelID: p.ChannelID, AccessHash: p.AccessHash}
		a.mu.Lock()
		a.channels[id] = input
		a.mu.Unlock()

		name := ""
		if ch, found := elem.Entities.Channel(p.ChannelID); found {
			name = ch.Title
		}
		return &server.ChannelInfo{ID: id, Name: name}, nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to resolve channel id %d: %w", id, err)
	}
	return nil, fmt.Errorf("failed to resolve channel id %d, try the channel username or invite link instead", id)
}

func (a *account) remember(ch *tg.Channel) *server.ChannelInfo {
	a.mu.Lock()
	a.channels[ch.ID] = &tg.InputChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}
	a.mu.Unlock()

	name := ch.Title
	if name == "" {
		name = ch.Username
	}
	return &server.ChannelInfo{ID: ch.ID, Name: name}
}

func (a *account) input(channelID int64) (*tg.InputChannel, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	input, ok := a.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("channel %d not resolved", channelID)
	}
	return input, nil
}

func (a *account) channelName(ctx context.Context, input *tg.InputChannel) string {
	res, err := a.api.ChannelsGetChannels(ctx, []tg.InputChannelClass{input})
	if err != nil {
		return ""
	}
	chats, ok := res.(*tg.MessagesChats)
	if !ok {
		return ""
	}
	for _, chat := range chats.Chats {
		if ch, found := chat.(*tg.Channel); found && ch.ID == input.ChannelID {
			return ch.Title
		}
	}
	return ""
}

// ListFiles walks the channel history and returns every file-bearing
// message, newest first, as one snapshot.
func (g *Gateway) ListFiles(ctx context.Context, sessionID string, channelID int64) ([]models.ChannelFile, error) {
	acct, err := g.account(sessionID)
	if err != nil {
		return nil, err
	}
	input, err := acct.input(channelID)
	if err != nil {
		return nil, err
	}

	peer := &tg.InputPeerChannel{ChannelID: input.ChannelID, AccessHash: input.AccessHash}
	files := make([]models.ChannelFile, 0)
	offsetID := 0

	for {
		res, err := acct.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     peer,
			OffsetID: offsetID,
			Limit:    historyBatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}

		batch, err := historyMessages(res)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		for _, mc := range batch {
			msg, ok := mc.(*tg.Message)
			if !ok {
				continue
			}
			if file, has := classify(msg); has {
				files = append(files, file)
			}
		}

		last := batch[len(batch)-1]
		offsetID = last.GetID()
		if len(batch) < historyBatchSize {
			break
		}
	}

	return files, nil
}

// FetchFile downloads the media of one message into memory.
func (g *Gateway) FetchFile(ctx context.Context, sessionID string, channelID, messageID int64) (*server.FetchedFile, error) {
	acct, err := g.account(sessionID)
	if err != nil {
		return nil, err
	}
	input, err := acct.input(channelID)
	if err != nil {
		return nil, err
	}

	res, err := acct.api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
		Channel: input,
		ID:      []tg.InputMessageClass{&tg.InputMessageID{ID: int(messageID)}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %d: %w", messageID, err)
	}

	channelMsgs, ok := res.(*tg.MessagesChannelMessages)
	if !ok || len(channelMsgs.Messages) == 0 {
		return nil, server.ErrNotFound
	}
	msg, ok := channelMsgs.Messages[0].(*tg.Message)
	if !ok {
		return nil, server.ErrNotFound
	}

	file, has := classify(msg)
	if !has {
		return nil, server.ErrNotFound
	}

	loc, err := mediaLocation(msg)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if _, err := downloader.NewDownloader().Download(acct.api, loc).Stream(ctx, buf); err != nil {
		return nil, fmt.Errorf("transfer failed for message %d: %w", messageID, err)
	}

	return &server.FetchedFile{
		Filename: file.Filename,
		Size:     int64(buf.Len()),
		MimeType: file.MimeType,
		Data:     buf.Bytes(),
	}, nil
}

// historyMessages extracts the message batch from a history response.
func historyMessages(res tg.MessagesMessagesClass) ([]tg.MessageClass, error) {
	switch r := res.(type) {
	case *tg.MessagesMessages:
		return r.Messages, nil
	case *tg.MessagesMessagesSlice:
		return r.Messages, nil
	case *tg.MessagesChannelMessages:
		return r.Messages, nil
	default:
		return nil, fmt.Errorf("unexpected messages type: %T", res)
	}
}

// classify inspects a message's media and builds its listing entry.
// Documents keep their declared filename when one is attached, else get
// file_<id> with an extension derived from the mime type; photos become
// photo_<id>.jpg.
func classify(msg *tg.Message) (models.ChannelFile, bool) {
	file := models.ChannelFile{MessageID: int64(msg.ID)}
	if msg.Date > 0 {
		file.Date = time.Unix(int64(msg.Date), 0).UTC().Format(time.RFC3339)
	}

	switch media := msg.Media.(type) {
	case *tg.MessageMediaDocument:
		doc, ok := media.Document.(*tg.Document)
		if !ok {
			return file, false
		}
		file.Size = doc.Size
		file.MimeType = doc.MimeType
		for _, attr := range doc.Attributes {
			switch a := attr.(type) {
			case *tg.DocumentAttributeVideo:
				file.IsVideo = true
			case *tg.DocumentAttributeFilename:
				file.Filename = a.FileName
			}
		}
		if file.Filename == "" {
			ext := ""
			if _, sub, ok := strings.Cut(doc.MimeType, "/"); ok {
				ext = "." + sub
			}
			file.Filename = fmt.Sprintf("file_%d%s", msg.ID, ext)
		}
		return file, true

	case *tg.MessageMediaPhoto:
		photo, ok := media.Photo.(*tg.Photo)
		if !ok {
			return file, false
		}
		file.IsPhoto = true
		file.Filename = fmt.Sprintf("photo_%d.jpg", msg.ID)
		file.MimeType = "image/jpeg"
		if _, size := largestPhotoSize(photo); size > 0 {
			file.Size = int64(size)
		}
		return file, true
	}

	return file, false
}

// mediaLocation builds the download location for a message's media.
func mediaLocation(msg *tg.Message) (tg.InputFileLocationClass, error) {
	switch media := msg.Media.(type) {
	case *tg.MessageMediaDocument:
		doc, ok := media.Document.(*tg.Document)
		if !ok {
			return nil, server.ErrNotFound
		}
		return &tg.InputDocumentFileLocation{
			ID:            doc.ID,
			AccessHash:    doc.AccessHash,
			FileReference: doc.FileReference,
		}, nil

	case *tg.MessageMediaPhoto:
		photo, ok := media.Photo.(*tg.Photo)
		if !ok {
			return nil, server.ErrNotFound
		}
		thumb, _ := largestPhotoSize(photo)
		return &tg.InputPhotoFileLocation{
			ID:            photo.ID,
			AccessHash:    photo.AccessHash,
			FileReference: photo.FileReference,
			ThumbSize:     thumb,
		}, nil
	}

	return nil, server.ErrNotFound
}

// largestPhotoSize picks the biggest available photo size.
func largestPhotoSize(photo *tg.Photo) (string, int) {
	bestType := ""
	bestSize := 0
	for _, sc := range photo.Sizes {
		switch s := sc.(type) {
		case *tg.PhotoSize:
			if s.Size > bestSize {
				bestType = s.Type
				bestSize = s.Size
			}
		case *tg.PhotoSizeProgressive:
			if n := len(s.Sizes); n > 0 && s.Sizes[n-1] > bestSize {
				bestType = s.Type
				bestSize = s.Sizes[n-1]
			}
		}
	}
	return bestType, bestSize
}
