package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EthanQC/collab/internal/domain/entity"
)

func TestAcquireLockGrantAndDeny(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	connA := &fakeConn{}
	snapA, err := svc.Join(ctx, "proj-1", "alice", connA)
	require.NoError(t, err)
	connB := &fakeConn{}
	snapB, err := svc.Join(ctx, "proj-1", "bob", connB)
	require.NoError(t, err)

	granted, err := svc.AcquireLock(ctx, snapA.ConnectionID, "main.go", entity.LockTypeExclusive)
	require.NoError(t, err)
	assert.True(t, granted)

	// 授予广播给全房间，包括持有者
	lockedA := connA.lastOfType(entity.MsgFileLocked)
	require.NotNil(t, lockedA)
	lock := lockedA.Payload.(*entity.FileLock)
	assert.Equal(t, "main.go", lock.FileName)
	assert.Equal(t, "alice", lock.HolderID)
	require.NotNil(t, connB.lastOfType(entity.MsgFileLocked))
	assert.Equal(t, 1, store.lockCount())

	// 已锁文件的二次申请：拒绝只发给请求方
	granted, err = svc.AcquireLock(ctx, snapB.ConnectionID, "main.go", entity.LockTypeExclusive)
	require.NoError(t, err)
	assert.False(t, granted)

	denied := connB.lastOfType(entity.MsgFileLockDenied)
	require.NotNil(t, denied)
	dp := denied.Payload.(*entity.FileLockDeniedPayload)
	assert.Equal(t, "main.go", dp.FileName)
	assert.Equal(t, "alice", dp.LockedBy)
	assert.Nil(t, connA.lastOfType(entity.MsgFileLockDenied))
	assert.Equal(t, 1, store.lockCount())
}

func TestSharedLockBehavesExclusive(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	snapA, err := svc.Join(ctx, "proj-1", "alice", &fakeConn{})
	require.NoError(t, err)
	snapB, err := svc.Join(ctx, "proj-1", "bob", &fakeConn{})
	require.NoError(t, err)

	granted, err := svc.AcquireLock(ctx, snapA.ConnectionID, "main.go", entity.LockTypeShared)
	require.NoError(t, err)
	assert.True(t, granted)

	// shared 锁在冲突判定上和 exclusive 一样
	granted, err = svc.AcquireLock(ctx, snapB.ConnectionID, "main.go", entity.LockTypeShared)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestAcquireLockDefaultsExclusive(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	connA := &fakeConn{}
	snap, err := svc.Join(ctx, "proj-1", "alice", connA)
	require.NoError(t, err)

	granted, err := svc.AcquireLock(ctx, snap.ConnectionID, "main.go", "")
	require.NoError(t, err)
	require.True(t, granted)

	lock := connA.lastOfType(entity.MsgFileLocked).Payload.(*entity.FileLock)
	assert.Equal(t, entity.LockTypeExclusive, lock.Type)
}

func TestDifferentFilesLockIndependently(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	snapA, err := svc.Join(ctx, "proj-1", "alice", &fakeConn{})
	require.NoError(t, err)
	snapB, err := svc.Join(ctx, "proj-1", "bob", &fakeConn{})
	require.NoError(t, err)

	granted, err := svc.AcquireLock(ctx, snapA.ConnectionID, "main.go", entity.LockTypeExclusive)
	require.NoError(t, err)
	assert.True(t, granted)
	granted, err = svc.AcquireLock(ctx, snapB.ConnectionID, "util.go", entity.LockTypeExclusive)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestReleaseLockHolderOnly(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	connA := &fakeConn{}
	snapA, err := svc.Join(ctx, "proj-1", "alice", connA)
	require.NoError(t, err)
	connB := &fakeConn{}
	snapB, err := svc.Join(ctx, "proj-1", "bob", connB)
	require.NoError(t, err)

	granted, err := svc.AcquireLock(ctx, snapA.ConnectionID, "main.go", entity.LockTypeExclusive)
	require.NoError(t, err)
	require.True(t, granted)

	// 非持有者的释放静默忽略
	require.NoError(t, svc.ReleaseLock(ctx, snapB.ConnectionID, "main.go"))
	assert.Nil(t, connA.lastOfType(entity.MsgFileUnlocked))
	assert.Equal(t, 1, store.lockCount())

	// 持有者释放成功，广播给全房间
	require.NoError(t, svc.ReleaseLock(ctx, snapA.ConnectionID, "main.go"))
	unlockedA := connA.lastOfType(entity.MsgFileUnlocked)
	require.NotNil(t, unlockedA)
	assert.Equal(t, "alice", unlockedA.Payload.(*entity.FileUnlockedPayload).UnlockedBy)
	require.NotNil(t, connB.lastOfType(entity.MsgFileUnlocked))
	assert.Zero(t, store.lockCount())

	// 释放后文件可以被重新锁定
	granted, err = svc.AcquireLock(ctx, snapB.ConnectionID, "main.go", entity.LockTypeExclusive)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestReleaseUnlockedFileIsNoop(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	connA := &fakeConn{}
	snap, err := svc.Join(ctx, "proj-1", "alice", connA)
	require.NoError(t, err)

	require.NoError(t, svc.ReleaseLock(ctx, snap.ConnectionID, "main.go"))
	assert.Nil(t, connA.lastOfType(entity.MsgFileUnlocked))
}

func TestLockRequiresFileName(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	snap, err := svc.Join(ctx, "proj-1", "alice", &fakeConn{})
	require.NoError(t, err)

	_, err = svc.AcquireLock(ctx, snap.ConnectionID, "", entity.LockTypeExclusive)
	require.ErrorIs(t, err, ErrMissingFileName)
	require.ErrorIs(t, svc.ReleaseLock(ctx, snap.ConnectionID, ""), ErrMissingFileName)
}

func TestDisconnectFreesLockForWaiter(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	snapA, err := svc.Join(ctx, "proj-1", "alice", &fakeConn{})
	require.NoError(t, err)
	connB := &fakeConn{}
	snapB, err := svc.Join(ctx, "proj-1", "bob", connB)
	require.NoError(t, err)

	granted, err := svc.AcquireLock(ctx, snapA.ConnectionID, "main.go", entity.LockTypeExclusive)
	require.NoError(t, err)
	require.True(t, granted)
	granted, err = svc.AcquireLock(ctx, snapB.ConnectionID, "main.go", entity.LockTypeExclusive)
	require.NoError(t, err)
	require.False(t, granted)

	// 持有者断连，锁隐式释放，等待方这次能拿到
	svc.Leave(ctx, snapA.ConnectionID)
	require.NotNil(t, connB.lastOfType(entity.MsgFileUnlocked))

	granted, err = svc.AcquireLock(ctx, snapB.ConnectionID, "main.go", entity.LockTypeExclusive)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestSnapshotCarriesExistingLocks(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	snapA, err := svc.Join(ctx, "proj-1", "alice", &fakeConn{})
	require.NoError(t, err)
	granted, err := svc.AcquireLock(ctx, snapA.ConnectionID, "main.go", entity.LockTypeExclusive)
	require.NoError(t, err)
	require.True(t, granted)

	snapB, err := svc.Join(ctx, "proj-1", "bob", &fakeConn{})
	require.NoError(t, err)
	require.Len(t, snapB.FileLocks, 1)
	assert.Equal(t, "main.go", snapB.FileLocks[0].FileName)
	assert.Equal(t, "alice", snapB.FileLocks[0].HolderID)
}
