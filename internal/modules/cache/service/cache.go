package service

import (
	"reflect"
	"sync"
	"time"
)

type entry struct {
	storedAt time.Time
	payload  any
}

// Cache — мемоизация по ключу с TTL на чтении. Вытеснения нет, запись устаревает сама.
type Cache struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

func NewCache() *Cache {
	return &Cache{data: make(map[string]entry), now: time.Now}
}

// WithClock подменяет часы (тесты).
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Get возвращает значение, если ему меньше ttl, иначе зовёт producer.
// Ошибка и nil-результат не кешируются.
func Get[T any](c *Cache, key string, ttl time.Duration, producer func() (T, error)) (T, error) {
	c.mu.Lock()
	e, ok := c.data[key]
	now := c.now()
	c.mu.Unlock()

	if ok && now.Sub(e.storedAt) < ttl {
		if v, ok := e.payload.(T); ok {
			return v, nil
		}
	}

	v, err := producer()
	if err != nil {
		return v, err
	}
	if isNil(v) {
		return v, nil
	}

	c.mu.Lock()
	c.data[key] = entry{storedAt: c.now(), payload: v}
	c.mu.Unlock()
	return v, nil
}

// Put кладёт готовое значение (прогрев при старте).
func (c *Cache) Put(key string, v any) {
	if isNil(v) {
		return
	}
	c.mu.Lock()
	c.data[key] = entry{storedAt: c.now(), payload: v}
	c.mu.Unlock()
}

func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
