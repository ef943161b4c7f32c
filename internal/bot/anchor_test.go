package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type fakeTransport struct {
	editErr   error
	sendErr   error
	edits     int
	sends     int
	deletes   int
	lastText  string
	nextMsgID int
}

func (f *fakeTransport) Edit(_ tele.Editable, what interface{}, _ ...interface{}) (*tele.Message, error) {
	f.edits++
	if f.editErr != nil {
		return nil, f.editErr
	}
	f.lastText, _ = what.(string)
	return &tele.Message{ID: 1}, nil
}

func (f *fakeTransport) Send(_ tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	f.sends++
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.lastText, _ = what.(string)
	f.nextMsgID++
	return &tele.Message{ID: f.nextMsgID}, nil
}

func (f *fakeTransport) Delete(_ tele.Editable) error {
	f.deletes++
	return nil
}

type fakeAnchorStore struct {
	anchor  *int
	getErr  error
	setErr  error
	setCnt  int
	lastSet int
}

func (f *fakeAnchorStore) Anchor(_ context.Context, _ int64) (*int, error) {
	return f.anchor, f.getErr
}

func (f *fakeAnchorStore) SetAnchor(_ context.Context, _ int64, msgID int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setCnt++
	f.lastSet = msgID
	f.anchor = &msgID
	return nil
}

func TestAnchorRenderEditsInPlace(t *testing.T) {
	id := 10
	tp := &fakeTransport{}
	store := &fakeAnchorStore{anchor: &id}
	a := NewAnchor(tp, store)

	err := a.Render(context.Background(), 1, 100, Screen{Text: "hello"})
	require.NoError(t, err)

	assert.Equal(t, 1, tp.edits)
	assert.Equal(t, 0, tp.sends, "successful edit must not send a new message")
	assert.Equal(t, 0, store.setCnt)
}

func TestAnchorRenderSendsWhenNoAnchor(t *testing.T) {
	tp := &fakeTransport{nextMsgID: 40}
	store := &fakeAnchorStore{}
	a := NewAnchor(tp, store)

	err := a.Render(context.Background(), 1, 100, Screen{Text: "hello"})
	require.NoError(t, err)

	assert.Equal(t, 0, tp.edits)
	assert.Equal(t, 1, tp.sends)
	assert.Equal(t, 41, store.lastSet, "new message becomes the anchor")
}

func TestAnchorRenderFallsBackOnEditFailure(t *testing.T) {
	id := 10
	tp := &fakeTransport{
		editErr:   &tele.Error{Code: 400, Description: "Bad Request: message to edit not found"},
		nextMsgID: 50,
	}
	store := &fakeAnchorStore{anchor: &id}
	a := NewAnchor(tp, store)

	err := a.Render(context.Background(), 1, 100, Screen{Text: "hello"})
	require.NoError(t, err)

	assert.Equal(t, 1, tp.edits)
	assert.Equal(t, 1, tp.sends)
	assert.Equal(t, 51, store.lastSet, "anchor re-points at the replacement message")
}

func TestAnchorRenderNotModifiedIsSuccess(t *testing.T) {
	id := 10
	tp := &fakeTransport{
		editErr: &tele.Error{Code: 400, Description: "Bad Request: message is not modified"},
	}
	store := &fakeAnchorStore{anchor: &id}
	a := NewAnchor(tp, store)

	err := a.Render(context.Background(), 1, 100, Screen{Text: "same"})
	require.NoError(t, err)
	assert.Equal(t, 0, tp.sends, "identical content must not re-anchor")
}

func TestAnchorRenderPropagatesStoreError(t *testing.T) {
	boom := errors.New("db down")
	a := NewAnchor(&fakeTransport{}, &fakeAnchorStore{getErr: boom})

	err := a.Render(context.Background(), 1, 100, Screen{Text: "hello"})
	assert.ErrorIs(t, err, boom)
}

func TestAnchorRenderPropagatesSendError(t *testing.T) {
	boom := errors.New("network down")
	a := NewAnchor(&fakeTransport{sendErr: boom}, &fakeAnchorStore{})

	err := a.Render(context.Background(), 1, 100, Screen{Text: "hello"})
	assert.ErrorIs(t, err, boom)
}

func TestClassifyEdit(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want editOutcome
	}{
		{"nil", nil, editOK},
		{"not modified", &tele.Error{Code: 400, Description: "Bad Request: message is not modified"}, editNotModified},
		{"not found", &tele.Error{Code: 400, Description: "Bad Request: message to edit not found"}, editNotFound},
		{"forbidden", &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}, editForbidden},
		{"flood", tele.FloodError{RetryAfter: 5}, editRateLimited},
		{"other", errors.New("dial tcp: timeout"), editFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyEdit(tt.err))
		})
	}
}

func TestDiscardSwallowsErrors(t *testing.T) {
	tp := &fakeTransport{}
	a := NewAnchor(tp, &fakeAnchorStore{})

	a.Discard(nil)
	assert.Equal(t, 0, tp.deletes)

	a.Discard(tele.StoredMessage{MessageID: "5", ChatID: 100})
	assert.Equal(t, 1, tp.deletes)
}
