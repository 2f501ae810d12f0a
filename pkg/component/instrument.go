package component

import "time"

// Instrument receives render scheduler events. Calls are made on the loop
// goroutine and must not block. An Instrument that also implements
// reactive.Instrument receives the App's reactive events as well.
type Instrument interface {
	RenderStarted(component string)
	Superseded(component string)
	RenderError(component string)
	Committed(ev CommitEvent)
}

// CommitEvent describes one committed render pass.
type CommitEvent struct {
	AppID     string        `json:"appId"`
	Pass      uint64        `json:"pass"`
	Root      string        `json:"root"`
	RootID    uint64        `json:"rootId"`
	Rendered  int           `json:"rendered"`
	Mounted   int           `json:"mounted"`
	Patched   int           `json:"patched"`
	Destroyed int           `json:"destroyed"`
	PatchOps  int           `json:"patchOps"`
	Duration  time.Duration `json:"duration"`

	// PatchOpsByKind splits PatchOps by operation name (SetText, MoveNode...).
	PatchOpsByKind map[string]int `json:"patchOpsByKind,omitempty"`
}

type noopInstrument struct{}

func (noopInstrument) RenderStarted(string)  {}
func (noopInstrument) Superseded(string)     {}
func (noopInstrument) RenderError(string)    {}
func (noopInstrument) Committed(CommitEvent) {}

type commitListener struct {
	id int
	fn func(CommitEvent)
}

// OnCommit registers fn to run after every committed pass. It returns a
// function removing the listener.
func (a *App) OnCommit(fn func(CommitEvent)) (remove func()) {
	a.listenerSeq++
	id := a.listenerSeq
	a.commitListeners = append(a.commitListeners, commitListener{id: id, fn: fn})
	return func() {
		for i, l := range a.commitListeners {
			if l.id == id {
				a.commitListeners = append(a.commitListeners[:i:i], a.commitListeners[i+1:]...)
				return
			}
		}
	}
}
