package settings

import (
	"strconv"
	"strings"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Bucket holds one user's task metadata. Task ids appear as decimal string
// keys to match the on-disk layout.
type Bucket struct {
	Groups        []string           `json:"groups"`
	TaskGroups    map[string]string  `json:"task_groups"`
	Priorities    map[string]string  `json:"priorities"`
	CompletionLog []string           `json:"completion_log"`
	Reminded      map[string][]int64 `json:"reminded"`
}

func (b *Bucket) ensure() {
	if b.Groups == nil {
		b.Groups = []string{}
	}
	if b.TaskGroups == nil {
		b.TaskGroups = map[string]string{}
	}
	if b.Priorities == nil {
		b.Priorities = map[string]string{}
	}
	if b.CompletionLog == nil {
		b.CompletionLog = []string{}
	}
	if b.Reminded == nil {
		b.Reminded = map[string][]int64{}
	}
}

// AddGroup appends a group name, preserving insertion order and skipping
// empties and duplicates (names compare case-sensitively).
func (b *Bucket) AddGroup(name string) {
	if name == "" {
		return
	}
	for _, g := range b.Groups {
		if g == name {
			return
		}
	}
	b.Groups = append(b.Groups, name)
}

// AssignGroup links a task to a group and registers the group name, keeping
// Groups a superset of every name used in TaskGroups.
func (b *Bucket) AssignGroup(taskID int64, group string) {
	if group == "" {
		return
	}
	b.TaskGroups[taskKey(taskID)] = group
	b.AddGroup(group)
}

func (b *Bucket) Group(taskID int64) string {
	return b.TaskGroups[taskKey(taskID)]
}

func (b *Bucket) SetPriority(taskID int64, priority string) {
	b.Priorities[taskKey(taskID)] = NormalizePriority(priority)
}

// Priority returns the task's priority, defaulting to low when unset.
func (b *Bucket) Priority(taskID int64) string {
	if p, ok := b.Priorities[taskKey(taskID)]; ok {
		return NormalizePriority(p)
	}
	return PriorityLow
}

// LogCompletion records that at least one task was completed on day (an ISO
// date string). It reports whether the day was newly added.
func (b *Bucket) LogCompletion(day string) bool {
	for _, d := range b.CompletionLog {
		if d == day {
			return false
		}
	}
	b.CompletionLog = append(b.CompletionLog, day)
	return true
}

// MarkReminded records task ids as already notified for the given day.
func (b *Bucket) MarkReminded(day string, ids []int64) {
	if len(ids) == 0 {
		return
	}
	b.Reminded[day] = append(b.Reminded[day], ids...)
}

// RemindedOn returns the set of task ids already notified on day.
func (b *Bucket) RemindedOn(day string) map[int64]bool {
	set := make(map[int64]bool, len(b.Reminded[day]))
	for _, id := range b.Reminded[day] {
		set[id] = true
	}
	return set
}

// RemoveTask prunes every piece of metadata referencing the task: its
// priority, its group link, and any reminder records.
func (b *Bucket) RemoveTask(taskID int64) {
	k := taskKey(taskID)
	delete(b.Priorities, k)
	delete(b.TaskGroups, k)
	for day, ids := range b.Reminded {
		kept := ids[:0]
		for _, id := range ids {
			if id != taskID {
				kept = append(kept, id)
			}
		}
		b.Reminded[day] = kept
	}
}

// NormalizePriority maps arbitrary input onto the three known levels,
// falling back to low.
func NormalizePriority(p string) string {
	v := strings.ToLower(strings.TrimSpace(p))
	switch v {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return v
	default:
		return PriorityLow
	}
}

func taskKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
