package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/nirmitsaini1024/tgrab/internal/models"
)

// fakeGateway implements Gateway for handler tests. Behavior is driven
// by the exported fields; zero value is a gateway with one empty
// channel.
type fakeGateway struct {
	mu sync.Mutex

	alreadyAuthorized bool
	sendCodeErr       error
	acceptCode        string
	acceptPassword    string
	passwordRequired  bool
	identity          models.Identity

	channelID   int64
	channelName string
	resolveErr  error
	files       []models.ChannelFile
	listErr     error
	content     map[int64][]byte
	fetchErr    map[int64]error

	closed []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		acceptCode:  "12345",
		identity:    models.Identity{ID: 42, FirstName: "Test", Username: "tester", Phone: "+15550100"},
		channelID:   1234567,
		channelName: "Test Channel",
		content:     make(map[int64][]byte),
		fetchErr:    make(map[int64]error),
	}
}

func (f *fakeGateway) SendCode(ctx context.Context, sessionID string, apiID int, apiHash, phone string) (bool, error) {
	if f.sendCodeErr != nil {
		return false, f.sendCodeErr
	}
	return f.alreadyAuthorized, nil
}

func (f *fakeGateway) SignIn(ctx context.Context, sessionID, phone, code string) (*models.Identity, error) {
	if code != f.acceptCode {
		return nil, fmt.Errorf("Invalid code")
	}
	if f.passwordRequired {
		return nil, ErrPasswordRequired
	}
	id := f.identity
	return &id, nil
}

func (f *fakeGateway) SignInWithPassword(ctx context.Context, sessionID, password string) (*models.Identity, error) {
	if password != f.acceptPassword {
		return nil, fmt.Errorf("Invalid password")
	}
	id := f.identity
	return &id, nil
}

func (f *fakeGateway) ResolveChannel(ctx context.Context, sessionID string, ref ChannelRef) (*ChannelInfo, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return &ChannelInfo{ID: f.channelID, Name: f.channelName}, nil
}

func (f *fakeGateway) ListFiles(ctx context.Context, sessionID string, channelID int64) ([]models.ChannelFile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.files, nil
}

func (f *fakeGateway) FetchFile(ctx context.Context, sessionID string, channelID, messageID int64) (*FetchedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fetchErr[messageID]; ok {
		return nil, err
	}
	data, ok := f.content[messageID]
	if !ok {
		return nil, ErrNotFound
	}
	var name string
	for _, file := range f.files {
		if file.MessageID == messageID {
			name = file.Filename
		}
	}
	if name == "" {
		name = fmt.Sprintf("file_%d", messageID)
	}
	return &FetchedFile{
		Filename: name,
		Size:     int64(len(data)),
		MimeType: "application/octet-stream",
		Data:     data,
	}, nil
}

func (f *fakeGateway) Close(sessionID string) {
	f.mu.Lock()
	f.closed = append(f.closed, sessionID)
	f.mu.Unlock()
}
