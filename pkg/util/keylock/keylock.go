// Package keylock 提供按 key 粒度的互斥锁
// 同一个 key 上的操作串行执行，不同 key 之间互不影响
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int // 持有或等待该锁的协程数，归零后从表中移除
}

// KeyedMutex 按 key 加锁，空闲 key 会被自动回收
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New 创建 KeyedMutex
func New() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*entry)}
}

// Lock 获取 key 对应的锁，返回的函数用于释放
// 用法:
//
//	unlock := km.Lock(key)
//	defer unlock()
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

// Len 当前活跃的 key 数量
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// PairKey 把无序的两个 id 规整为 "low|high"
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
