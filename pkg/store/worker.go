package store

import (
	"context"
	"time"

	"github.com/StoreStation/tilehaven/pkg/player"
	"github.com/StoreStation/tilehaven/pkg/world"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// flushInterval and maxQueueSize are the batching policy triggers (spec
// §4.5: "200ms... or either queue reaches 100 entries").
const (
	flushInterval = 200 * time.Millisecond
	maxQueueSize  = 100
)

// Message is the worker's inbound request shape: exactly one of Player or
// World is set.
type Message struct {
	Player *player.Player
	World  *world.World
}

// Worker is the single background persistence goroutine (spec §4.5, §5).
// It owns both database handles; the session core never touches them
// directly.
type Worker struct {
	store   *Store
	inbound chan Message
	done    chan struct{}
}

// NewWorker returns a Worker bound to store. Call Run in its own goroutine.
func NewWorker(s *Store) *Worker {
	return &Worker{
		store:   s,
		inbound: make(chan Message, 1024),
		done:    make(chan struct{}),
	}
}

// UpdatePlayer enqueues a player snapshot for the next flush. Safe to call
// from any goroutine.
func (w *Worker) UpdatePlayer(p *player.Player) {
	w.inbound <- Message{Player: p}
}

// UpdateWorld enqueues a world snapshot for the next flush. Safe to call
// from any goroutine.
func (w *Worker) UpdateWorld(snapshot *world.World) {
	w.inbound <- Message{World: snapshot}
}

// Close signals the worker to stop accepting new work; Run performs a
// final flush and returns once the channel drains.
func (w *Worker) Close() {
	close(w.inbound)
}

// Run drives the batching loop until ctx is canceled or the inbound
// channel is closed, whichever comes first. Channel close triggers a final
// flush before returning (spec §4.5 "Channel close triggers a final flush
// and worker exit").
func (w *Worker) Run(ctx context.Context) {
	players := make(map[string]*player.Player)
	worlds := make(map[string]*world.World)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(players) == 0 && len(worlds) == 0 {
			return
		}
		w.flush(players, worlds)
		players = make(map[string]*player.Player)
		worlds = make(map[string]*world.World)
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case msg, ok := <-w.inbound:
			if !ok {
				flush()
				close(w.done)
				return
			}
			if msg.Player != nil {
				players[msg.Player.Name] = msg.Player // last write wins at commit time
			}
			if msg.World != nil {
				worlds[msg.World.Name] = msg.World
			}
			if len(players) >= maxQueueSize || len(worlds) >= maxQueueSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

// Wait blocks until a worker stopped via Close has finished its final
// flush.
func (w *Worker) Wait() {
	<-w.done
}

// flush opens one transaction per non-empty queue, applies every entry,
// and commits (spec §4.5 batching policy). A failed commit logs and
// discards the batch; a failed per-entry write logs and continues within
// the same transaction (spec §7 persistence error kind).
func (w *Worker) flush(players map[string]*player.Player, worlds map[string]*world.World) {
	batchID := uuid.NewString()

	if len(players) > 0 {
		w.flushPlayers(batchID, players)
	}
	if len(worlds) > 0 {
		w.flushWorlds(batchID, worlds)
	}
}

func (w *Worker) flushPlayers(batchID string, players map[string]*player.Player) {
	tx, err := w.store.Peers.Begin()
	if err != nil {
		logrus.WithError(err).WithField("batch", batchID).Error("persistence: begin players transaction failed")
		return
	}
	defer tx.Rollback()

	saved := 0
	for _, p := range players {
		if err := SavePlayerTx(tx, p); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"batch": batchID, "player": p.Name}).
				Error("persistence: player write failed, continuing batch")
			continue
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		logrus.WithError(err).WithField("batch", batchID).Error("persistence: players commit failed, batch discarded")
		return
	}
	logrus.WithFields(logrus.Fields{"batch": batchID, "players": saved}).Info("persistence: players flushed")
}

func (w *Worker) flushWorlds(batchID string, worlds map[string]*world.World) {
	tx, err := w.store.Worlds.Begin()
	if err != nil {
		logrus.WithError(err).WithField("batch", batchID).Error("persistence: begin worlds transaction failed")
		return
	}
	defer tx.Rollback()

	saved := 0
	for _, ws := range worlds {
		if err := SaveWorldTx(tx, ws); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"batch": batchID, "world": ws.Name}).
				Error("persistence: world write failed, continuing batch")
			continue
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		logrus.WithError(err).WithField("batch", batchID).Error("persistence: worlds commit failed, batch discarded")
		return
	}
	logrus.WithFields(logrus.Fields{"batch": batchID, "worlds": saved}).Info("persistence: worlds flushed")
}
