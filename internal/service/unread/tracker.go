// Package unread 维护每个 (查看者, 对方) 的未读计数
// 计数是消息表的派生数据，可以随时通过 Recount 重建
package unread

import (
	"context"

	"campus_chat_server/internal/dao/mysql/repository"
	myredis "campus_chat_server/internal/dao/redis"
	"campus_chat_server/pkg/constants"
	"campus_chat_server/pkg/errorx"
	"campus_chat_server/pkg/util/keylock"

	"go.uber.org/zap"
)

// CounterStore 未读计数存储
type CounterStore interface {
	Incr(ctx context.Context, owner, peer string) (int64, error)
	Reset(ctx context.Context, owner, peer string) error
	All(ctx context.Context, owner string) (map[string]int64, error)
	Set(ctx context.Context, owner, peer string, n int64) error
}

// cacheCounterStore 基于 CacheService hash 的实现
// 每个 owner 一个 hash: unread:<owner> -> {peer: count}
type cacheCounterStore struct {
	cache myredis.CacheService
}

// NewCacheCounterStore Redis 与内存缓存都可以作为底层
func NewCacheCounterStore(cache myredis.CacheService) CounterStore {
	return &cacheCounterStore{cache: cache}
}

func key(owner string) string {
	return constants.UnreadKeyPrefix + owner
}

func (s *cacheCounterStore) Incr(ctx context.Context, owner, peer string) (int64, error) {
	return s.cache.HIncrBy(ctx, key(owner), peer, 1)
}

func (s *cacheCounterStore) Reset(ctx context.Context, owner, peer string) error {
	return s.cache.HDel(ctx, key(owner), peer)
}

func (s *cacheCounterStore) All(ctx context.Context, owner string) (map[string]int64, error) {
	return s.cache.HGetAll(ctx, key(owner))
}

func (s *cacheCounterStore) Set(ctx context.Context, owner, peer string, n int64) error {
	return s.cache.HSet(ctx, key(owner), peer, n)
}

// Tracker 未读计数服务
type Tracker struct {
	store    CounterStore
	messages repository.MessageRepository
	locks    *keylock.KeyedMutex
}

// NewTracker 构造函数，locks 与消息路由共用
func NewTracker(store CounterStore, messages repository.MessageRepository, locks *keylock.KeyedMutex) *Tracker {
	return &Tracker{store: store, messages: messages, locks: locks}
}

// OnDelivered recipient 收到 sender 的一条消息
// 调用方需持有这一对用户的 pair 锁
func (t *Tracker) OnDelivered(ctx context.Context, recipient, sender string) error {
	if _, err := t.store.Incr(ctx, recipient, sender); err != nil {
		zap.L().Error("unread incr error", zap.String("recipient", recipient), zap.String("sender", sender), zap.Error(err))
		return err
	}
	return nil
}

// OnConversationOpened viewer 打开了与 peer 的会话
// 计数清零，peer 发给 viewer 的消息全部标记已读
func (t *Tracker) OnConversationOpened(ctx context.Context, viewer, peer string) error {
	if viewer == "" || peer == "" || viewer == peer {
		return errorx.New(errorx.CodeInvalidParam, "会话参数不合法")
	}
	unlock := t.locks.Lock(keylock.PairKey(viewer, peer))
	defer unlock()

	if _, err := t.messages.MarkRead(peer, viewer); err != nil {
		zap.L().Error("mark read error", zap.String("viewer", viewer), zap.String("peer", peer), zap.Error(err))
		return err
	}
	if err := t.store.Reset(ctx, viewer, peer); err != nil {
		zap.L().Error("unread reset error", zap.String("viewer", viewer), zap.String("peer", peer), zap.Error(err))
		return err
	}
	return nil
}

// Snapshot 返回 viewer 所有非零计数
func (t *Tracker) Snapshot(ctx context.Context, viewer string) (map[string]int64, error) {
	all, err := t.store.All(ctx, viewer)
	if err != nil {
		zap.L().Error("unread snapshot error", zap.String("viewer", viewer), zap.Error(err))
		return nil, err
	}
	out := make(map[string]int64, len(all))
	for peer, n := range all {
		if n > 0 {
			out[peer] = n
		}
	}
	return out, nil
}

// Recount 根据消息表中的未读消息重建 viewer 的计数
// 逐个对方在 pair 锁内重算，与并发的发送互斥
func (t *Tracker) Recount(ctx context.Context, viewer string) (map[string]int64, error) {
	if viewer == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "用户id不能为空")
	}
	// 1. 收集需要处理的对方：有未读消息的和缓存里已有字段的
	fromMessages, err := t.messages.CountUnread(viewer)
	if err != nil {
		return nil, err
	}
	cached, err := t.store.All(ctx, viewer)
	if err != nil {
		return nil, err
	}
	peers := make(map[string]struct{}, len(fromMessages)+len(cached))
	for peer := range fromMessages {
		peers[peer] = struct{}{}
	}
	for peer := range cached {
		peers[peer] = struct{}{}
	}

	// 2. 每个对方单独加锁重算
	counts := make(map[string]int64, len(peers))
	for peer := range peers {
		n, err := t.recountPeer(ctx, viewer, peer)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			counts[peer] = n
		}
	}
	zap.L().Info("unread recounted", zap.String("viewer", viewer), zap.Int("peers", len(counts)))
	return counts, nil
}

func (t *Tracker) recountPeer(ctx context.Context, viewer, peer string) (int64, error) {
	unlock := t.locks.Lock(keylock.PairKey(viewer, peer))
	defer unlock()

	n, err := t.messages.CountUnreadFrom(peer, viewer)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		err = t.store.Reset(ctx, viewer, peer)
	} else {
		err = t.store.Set(ctx, viewer, peer, n)
	}
	if err != nil {
		zap.L().Error("unread recount error", zap.String("viewer", viewer), zap.String("peer", peer), zap.Error(err))
		return 0, err
	}
	return n, nil
}
