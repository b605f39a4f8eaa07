package domain

// EventKind 描述国家创建/解散的方式。
type EventKind string

const (
	KindRenamed EventKind = "renamed"
	KindJoined  EventKind = "joined"
	KindSplit   EventKind = "split"
	KindMerged  EventKind = "merged"
)

// Event 是一条历史事件记录。
//
// Created / Dissolved 最多一个非空：created 表里的记录只写 Created，dissolved 表里的只写 Dissolved；
// independence 表里的记录两者都为空。
type Event struct {
	Country   []string  `json:"country"`
	Created   EventKind `json:"created,omitempty"`
	Date      string    `json:"date"`
	Dissolved EventKind `json:"dissolved,omitempty"`
}

// Clone 返回深拷贝（Country 切片不共享底层数组）。
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.Country = append([]string(nil), e.Country...)
	return &c
}

// Events 是历史事件解析结果：国家名 -> 事件。
type Events struct {
	Created      map[string]Event
	Dissolved    map[string]Event
	Independence map[string]Event
}

func NewEvents() Events {
	return Events{
		Created:      map[string]Event{},
		Dissolved:    map[string]Event{},
		Independence: map[string]Event{},
	}
}
