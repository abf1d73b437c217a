// Package session implements the single-threaded event loop that is the
// heart of the server: per-peer session state, login, movement, tile
// interaction, equip, chat, broadcast, and NPC ticking (spec.md §4.6,
// component C6).
package session

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/StoreStation/tilehaven/pkg/catalog"
	"github.com/StoreStation/tilehaven/pkg/player"
	"github.com/StoreStation/tilehaven/pkg/store"
	"github.com/StoreStation/tilehaven/pkg/transport"
	"github.com/StoreStation/tilehaven/pkg/world"
)

// State is a peer's position in the per-peer session state machine (spec
// §4.6.1): Unknown → Handshaking → Redirected (terminal) | Authenticated →
// InWorld ↔ AtWorldSelect → Disconnected.
type State int

const (
	StateUnknown State = iota
	StateHandshaking
	StateRedirected
	StateAuthenticated
	StateInWorld
	StateAtWorldSelect
	StateDisconnected
)

// Session is the in-memory, per-connection record (spec §3 "Session").
type Session struct {
	PeerID        uint32
	State         State
	Name          string
	Player        *player.Player
	WorldName     string
	X, Y          float32
	HiddenPlayers bool

	// NetID addressed in broadcasts; equals PeerID once authenticated
	// (spec §4.6.4: "set net_id = peer_id").
	NetID int32
}

// Core is the session-core engine: the single-threaded event loop plus the
// session table, active worlds, catalog, transport, and persistence
// worker it coordinates (spec §4.6, §5).
type Core struct {
	transport *transport.Host
	catalog   *catalog.Catalog
	persist   *store.Worker
	dbStore   *store.Store

	admin chan AdminCommand
	rng   *rand.Rand

	// sessions, byName, and worlds are owned exclusively by the event
	// loop goroutine; no mutex guards them (spec §5: "no shared mutexes
	// in the hot path"). Only the admin channel crosses threads.
	sessions map[uint32]*Session
	byName   map[string]uint32
	worlds   map[string]*world.World

	lastNpcTick time.Time

	closeOnce sync.Once
	stopCh    chan struct{}
}

// Config configures a new Core.
type Config struct {
	Transport *transport.Host
	Catalog   *catalog.Catalog
	Persist   *store.Worker
	Store     *store.Store
}

// New builds a Core ready to Run.
func New(cfg Config) *Core {
	return &Core{
		transport: cfg.Transport,
		catalog:   cfg.Catalog,
		persist:   cfg.Persist,
		dbStore:   cfg.Store,
		admin:     make(chan AdminCommand, 256),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions:  make(map[uint32]*Session),
		byName:    make(map[string]uint32),
		worlds:    make(map[string]*world.World),
		stopCh:    make(chan struct{}),
	}
}

// AdminChannel returns the channel admin commands are submitted on (spec
// §6 "Admin command channel"); safe to send on from any goroutine.
func (c *Core) AdminChannel() chan<- AdminCommand {
	return c.admin
}

// Stop signals Run to exit after its current iteration.
func (c *Core) Stop() {
	c.closeOnce.Do(func() { close(c.stopCh) })
}

// sessionByName resolves the live session for a case-exact player name.
func (c *Core) sessionByName(name string) (*Session, bool) {
	id, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	s, ok := c.sessions[id]
	return s, ok
}

// sessionByNameFold resolves the live session whose name matches name
// case-insensitively (spec §4.6 step 1: admin commands "resolve a target
// by case-insensitive name match against the session table").
func (c *Core) sessionByNameFold(name string) (*Session, bool) {
	if s, ok := c.sessionByName(name); ok {
		return s, true
	}
	for _, s := range c.sessions {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return nil, false
}

// worldFor returns the resident world named name (case-insensitive via
// uppercasing, spec §3 "World (keyed by uppercased name)"), loading or
// generating it if absent.
func (c *Core) worldFor(name string) *world.World {
	key := upper(name)
	if w, ok := c.worlds[key]; ok {
		return w
	}

	if c.dbStore != nil {
		if w, found, err := store.LoadWorld(c.dbStore, key); err == nil && found {
			c.worlds[key] = w
			return w
		}
	}

	w := world.New(key)
	world.Generate(w, c.rng)
	c.worlds[key] = w
	c.persistWorld(w)
	return w
}

func (c *Core) persistWorld(w *world.World) {
	if c.persist != nil {
		c.persist.UpdateWorld(w)
	}
}

func (c *Core) persistPlayer(p *player.Player) {
	if c.persist != nil {
		c.persist.UpdatePlayer(p)
	}
}

func upper(s string) string {
	return strings.ToUpper(s)
}
