package taskapi

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Label is a tag attached to a task.
type Label struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Task is one task as the service reports it.
type Task struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	TotalSeconds      int     `json:"total_seconds"`
	Rolling24hSeconds int     `json:"rolling_24h_seconds"`
	IsRunning         bool    `json:"is_running"`
	ProjectID         *int64  `json:"project_id"`
	ProjectName       string  `json:"project_name,omitempty"`
	Labels            []Label `json:"labels"`
}

// Key is the task id as the timer stores it.
func (t Task) Key() string { return strconv.FormatInt(t.ID, 10) }

// Cache holds the last task list the service returned. It is replaced
// wholesale from every response, never patched.
type Cache struct {
	mu      sync.RWMutex
	tasks   []Task
	byKey   map[string]int
	updated time.Time
}

func NewCache() *Cache {
	return &Cache{byKey: map[string]int{}}
}

// Replace swaps in a new task list.
func (c *Cache) Replace(tasks []Task) {
	byKey := make(map[string]int, len(tasks))
	cp := append([]Task(nil), tasks...)
	for i, t := range cp {
		byKey[t.Key()] = i
	}
	c.mu.Lock()
	c.tasks = cp
	c.byKey = byKey
	c.updated = time.Now()
	c.mu.Unlock()
}

// Tasks returns the cached list in service order.
func (c *Cache) Tasks() []Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Task(nil), c.tasks...)
}

func (c *Cache) Get(key string) (Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byKey[key]
	if !ok {
		return Task{}, false
	}
	return c.tasks[i], true
}

// Running returns the tasks whose timers are running, by name.
func (c *Cache) Running() []Task {
	var out []Task
	for _, t := range c.Tasks() {
		if t.IsRunning {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tasks)
}

// UpdatedAt is when Replace last ran, zero if never.
func (c *Cache) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updated
}
