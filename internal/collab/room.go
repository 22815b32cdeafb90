package collab

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/constructhq/constructor/internal/document"
	"github.com/constructhq/constructor/internal/logger"
	"github.com/constructhq/constructor/internal/protocol"
)

// conn is the outbound half of one participant's connection. enqueue
// must not block: it reports false when the frame cannot be accepted,
// which the room treats as a dead connection. closeSend releases the
// writer once the participant is removed; it must tolerate repeated
// calls.
type conn interface {
	enqueue(frame []byte) bool
	closeSend()
}

// Participant is one connected editor within a room.
type Participant struct {
	ID       string
	Name     string
	JoinedAt time.Time

	conn conn
}

// Room owns one document and the participants editing it. All state is
// guarded by mu; every dispatch runs to completion under the lock, so
// two operations on the same room never interleave mid-mutation.
type Room struct {
	id string

	mu           sync.Mutex
	doc          document.Document
	participants map[string]*Participant
}

func newRoom(id string) *Room {
	return &Room{
		id:           id,
		participants: make(map[string]*Participant),
	}
}

// ID returns the room identifier.
func (r *Room) ID() string {
	return r.id
}

// Join registers a participant and runs the welcome sequence: the
// current document (when non-empty) goes to the joiner first, then the
// rest of the room hears a join event, then the joiner receives the
// full participant list. The joiner never sees its own join event.
func (r *Room) Join(id, name string, c conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.participants[id] = &Participant{
		ID:       id,
		Name:     name,
		JoinedAt: time.Now(),
		conn:     c,
	}

	if !r.doc.IsEmpty() {
		frame, err := protocol.Marshal(protocol.TypeSyncState, &r.doc)
		if err != nil {
			logger.Error("room %s: failed to marshal document for %s: %v", r.id, id, err)
		} else if !c.enqueue(frame) {
			r.removeLocked(id)
			return
		}
	}

	joinFrame, err := protocol.Marshal(protocol.TypeJoin, protocol.JoinPayload{ID: id, Name: name})
	if err != nil {
		logger.Error("room %s: failed to marshal join event: %v", r.id, err)
	} else {
		r.broadcastLocked(joinFrame, id)
	}

	listFrame, err := protocol.Marshal(protocol.TypeUsersList, r.usersLocked())
	if err != nil {
		logger.Error("room %s: failed to marshal users list: %v", r.id, err)
		return
	}
	if !c.enqueue(listFrame) {
		r.removeLocked(id)
	}
}

// Leave removes a participant and tells the remaining ones. It is a
// no-op when the participant is already gone, so the disconnect path
// and the send-failure path cannot double-announce. Returns the number
// of participants left.
func (r *Room) Leave(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(id)
	return len(r.participants)
}

// Dispatch decodes one inbound frame from a participant and applies it
// to the document. Malformed frames and unknown types are logged and
// dropped without disturbing the connection. Every document-changing
// operation ends with the new canonical document fanned out to everyone
// except the sender.
func (r *Room) Dispatch(senderID string, raw []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Warn("room %s: dropping malformed message from %s: %v", r.id, senderID, err)
		return
	}

	op, err := protocol.Decode(&env)
	if err != nil {
		logger.Warn("room %s: dropping message from %s: %v", r.id, senderID, err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch op := op.(type) {
	case protocol.SyncState:
		// Full snapshot from a client: adopt it and relay the original
		// frame untouched.
		r.doc = op.Document
		r.broadcastLocked(raw, senderID)
		return

	case protocol.CursorUpdate:
		r.broadcastLocked(raw, senderID)
		return

	case protocol.AddBlock:
		document.Append(&r.doc, op.Block)

	case protocol.UpdateBlock:
		if loc, ok := document.Find(&r.doc, op.BlockID); ok {
			loc.Update(op.Data)
		}

	case protocol.DeleteBlock:
		if loc, ok := document.Find(&r.doc, op.BlockID); ok {
			loc.Remove()
		}

	case protocol.MoveBlock:
		document.Reorder(&r.doc, op.FromIndex, op.ToIndex)

	case protocol.UpdateTheme:
		document.MergeTheme(&r.doc, op.Fields)

	case protocol.UpdateHeader:
		document.MergeHeader(&r.doc, op.Fields)

	case protocol.UpdateFooter:
		document.MergeFooter(&r.doc, op.Fields)
	}

	frame, err := protocol.Marshal(protocol.TypeSyncState, &r.doc)
	if err != nil {
		logger.Error("room %s: failed to marshal document after %s: %v", r.id, env.Type, err)
		return
	}
	r.broadcastLocked(frame, senderID)
}

// broadcastLocked delivers one pre-serialized frame to every
// participant except the excluded one. A recipient that cannot accept
// the frame is treated as disconnected and removed, which in turn
// announces its leave; failures never stop delivery to the rest.
func (r *Room) broadcastLocked(frame []byte, exclude string) {
	var failed []string
	for id, p := range r.participants {
		if id == exclude {
			continue
		}
		if !p.conn.enqueue(frame) {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		logger.Warn("room %s: send to %s failed, dropping participant", r.id, id)
		r.removeLocked(id)
	}
}

// removeLocked deletes a participant and broadcasts its leave event.
// Recursion through broadcastLocked terminates because the participant
// set strictly shrinks.
func (r *Room) removeLocked(id string) {
	p, ok := r.participants[id]
	if !ok {
		return
	}
	delete(r.participants, id)
	p.conn.closeSend()

	frame, err := protocol.Marshal(protocol.TypeLeave, protocol.LeavePayload{UserID: id})
	if err != nil {
		logger.Error("room %s: failed to marshal leave event: %v", r.id, err)
		return
	}
	r.broadcastLocked(frame, "")
}

// usersLocked lists participants in join order.
func (r *Room) usersLocked() []protocol.UserInfo {
	parts := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		parts = append(parts, p)
	}
	sort.Slice(parts, func(i, j int) bool {
		if parts[i].JoinedAt.Equal(parts[j].JoinedAt) {
			return parts[i].ID < parts[j].ID
		}
		return parts[i].JoinedAt.Before(parts[j].JoinedAt)
	})

	users := make([]protocol.UserInfo, 0, len(parts))
	for _, p := range parts {
		users = append(users, protocol.UserInfo{ID: p.ID, Name: p.Name})
	}
	return users
}

// Count returns the number of connected participants.
func (r *Room) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

// Info is the read-only per-room summary exposed to operators.
type Info struct {
	RoomID     string              `json:"room_id"`
	UsersCount int                 `json:"users_count"`
	Users      []protocol.UserInfo `json:"users"`
	HasState   bool                `json:"has_state"`
}

// Info returns a snapshot summary of the room.
func (r *Room) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Info{
		RoomID:     r.id,
		UsersCount: len(r.participants),
		Users:      r.usersLocked(),
		HasState:   !r.doc.IsEmpty(),
	}
}

// Document returns a deep snapshot of the current document, for
// collaborators that persist room state on their own schedule.
func (r *Room) Document() (document.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(&r.doc)
	if err != nil {
		return document.Document{}, err
	}
	var snapshot document.Document
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return document.Document{}, err
	}
	return snapshot, nil
}
