package ws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EthanQC/collab/internal/application"
	"github.com/EthanQC/collab/internal/domain/entity"
	"github.com/EthanQC/collab/internal/ports/in"
	"github.com/EthanQC/collab/internal/ports/out"
)

// fakeUseCase 记录每次调用的假用例层
type fakeUseCase struct {
	cursorReqs   []*in.CursorUpdateRequest
	opReqs       []*in.SubmitOperationRequest
	presenceReqs []*in.PresenceUpdateRequest
	chatReqs     []*in.PostChatRequest
	locked       []string
	unlocked     []string
	fileChanges  []string
	fileContents []string
	err          error
}

func (f *fakeUseCase) Join(ctx context.Context, projectID, userID string, conn out.ClientConn) (*entity.RoomSnapshot, error) {
	return &entity.RoomSnapshot{}, nil
}

func (f *fakeUseCase) Leave(ctx context.Context, connectionID string) {}

func (f *fakeUseCase) UpdatePresence(ctx context.Context, connectionID string, req *in.PresenceUpdateRequest) error {
	f.presenceReqs = append(f.presenceReqs, req)
	return f.err
}

func (f *fakeUseCase) UpdateCursor(ctx context.Context, connectionID string, req *in.CursorUpdateRequest) error {
	f.cursorReqs = append(f.cursorReqs, req)
	return f.err
}

func (f *fakeUseCase) SubmitOperation(ctx context.Context, connectionID string, req *in.SubmitOperationRequest) (*entity.EditOperation, error) {
	f.opReqs = append(f.opReqs, req)
	return &entity.EditOperation{}, f.err
}

func (f *fakeUseCase) ApplyFileChange(ctx context.Context, connectionID, fileName, content string) error {
	f.fileChanges = append(f.fileChanges, fileName)
	f.fileContents = append(f.fileContents, content)
	return f.err
}

func (f *fakeUseCase) AcquireLock(ctx context.Context, connectionID, fileName string, lockType entity.LockType) (bool, error) {
	f.locked = append(f.locked, fileName)
	return true, f.err
}

func (f *fakeUseCase) ReleaseLock(ctx context.Context, connectionID, fileName string) error {
	f.unlocked = append(f.unlocked, fileName)
	return f.err
}

func (f *fakeUseCase) PostChat(ctx context.Context, connectionID string, req *in.PostChatRequest) (*entity.ChatMessage, error) {
	f.chatReqs = append(f.chatReqs, req)
	return &entity.ChatMessage{}, f.err
}

func (f *fakeUseCase) ReapIdleRooms(ctx context.Context) int { return 0 }

var _ in.RoomUseCase = (*fakeUseCase)(nil)

func newTestClient(uc in.RoomUseCase) *Client {
	c := newClient(NewServer(uc), nil, "alice", "proj-1")
	c.connectionID = "conn-1"
	return c
}

// queued 取出已入队的下行消息，没有就返回 nil
func queued(c *Client) *entity.ServerMessage {
	select {
	case msg := <-c.send:
		return msg
	default:
		return nil
	}
}

func TestDispatchCursorUpdate(t *testing.T) {
	uc := &fakeUseCase{}
	c := newTestClient(uc)

	c.dispatch([]byte(`{"type":"cursor_update","payload":{"fileName":"main.go","line":3,"column":7}}`))

	require.Len(t, uc.cursorReqs, 1)
	assert.Equal(t, "main.go", uc.cursorReqs[0].FileName)
	assert.Equal(t, 3, uc.cursorReqs[0].Line)
	assert.Equal(t, 7, uc.cursorReqs[0].Column)
	assert.Nil(t, queued(c))
}

func TestDispatchEditOperation(t *testing.T) {
	uc := &fakeUseCase{}
	c := newTestClient(uc)

	c.dispatch([]byte(`{"type":"edit_operation","payload":{"fileName":"main.go","operationType":"insert","position":{"line":1,"column":2},"content":"x"}}`))

	require.Len(t, uc.opReqs, 1)
	assert.Equal(t, entity.OperationInsert, uc.opReqs[0].Type)
	assert.Equal(t, 2, uc.opReqs[0].Position.Column)
}

func TestDispatchFileChange(t *testing.T) {
	uc := &fakeUseCase{}
	c := newTestClient(uc)

	c.dispatch([]byte(`{"type":"file_change","payload":{"fileName":"main.go","content":"package main"}}`))

	assert.Equal(t, []string{"main.go"}, uc.fileChanges)
	assert.Equal(t, []string{"package main"}, uc.fileContents)
	assert.Nil(t, queued(c))
}

func TestDispatchLockAndUnlock(t *testing.T) {
	uc := &fakeUseCase{}
	c := newTestClient(uc)

	c.dispatch([]byte(`{"type":"file_lock","payload":{"fileName":"main.go","lockType":"exclusive"}}`))
	c.dispatch([]byte(`{"type":"file_unlock","payload":{"fileName":"main.go"}}`))

	assert.Equal(t, []string{"main.go"}, uc.locked)
	assert.Equal(t, []string{"main.go"}, uc.unlocked)
}

func TestDispatchChatMessage(t *testing.T) {
	uc := &fakeUseCase{}
	c := newTestClient(uc)

	c.dispatch([]byte(`{"type":"chat_message","payload":{"content":"hello","messageType":"text"}}`))

	require.Len(t, uc.chatReqs, 1)
	assert.Equal(t, "hello", uc.chatReqs[0].Content)
}

func TestDispatchMalformedPayloadRepliesError(t *testing.T) {
	uc := &fakeUseCase{}
	c := newTestClient(uc)

	c.dispatch([]byte(`{"type":"cursor_update","payload":"not an object"}`))

	assert.Empty(t, uc.cursorReqs)
	msg := queued(c)
	require.NotNil(t, msg)
	assert.Equal(t, entity.MsgError, msg.Type)
}

func TestDispatchInvalidJSONRepliesError(t *testing.T) {
	uc := &fakeUseCase{}
	c := newTestClient(uc)

	c.dispatch([]byte(`{{{`))

	msg := queued(c)
	require.NotNil(t, msg)
	assert.Equal(t, entity.MsgError, msg.Type)
}

func TestDispatchUnknownTypeIgnored(t *testing.T) {
	uc := &fakeUseCase{}
	c := newTestClient(uc)

	c.dispatch([]byte(`{"type":"teleport","payload":{}}`))

	assert.Nil(t, queued(c))
}

func TestDispatchPingRepliesPong(t *testing.T) {
	uc := &fakeUseCase{}
	c := newTestClient(uc)

	c.dispatch([]byte(`{"type":"ping"}`))

	msg := queued(c)
	require.NotNil(t, msg)
	assert.Equal(t, entity.MsgPong, msg.Type)
}

func TestDispatchUseCaseErrorReported(t *testing.T) {
	uc := &fakeUseCase{err: application.ErrMissingFileName}
	c := newTestClient(uc)

	c.dispatch([]byte(`{"type":"cursor_update","payload":{"fileName":""}}`))

	msg := queued(c)
	require.NotNil(t, msg)
	assert.Equal(t, entity.MsgError, msg.Type)
}

func TestDispatchRoomGoneIsSilent(t *testing.T) {
	uc := &fakeUseCase{err: application.ErrRoomNotFound}
	c := newTestClient(uc)

	c.dispatch([]byte(`{"type":"presence_update","payload":{"status":"away"}}`))

	require.Len(t, uc.presenceReqs, 1)
	assert.Nil(t, queued(c))
}
